package soundcloud

import (
	"net/url"
	"strings"
)

const sharedHost = "on.soundcloud.com"

var trackHosts = map[string]bool{
	"soundcloud.com":     true,
	"www.soundcloud.com": true,
	"m.soundcloud.com":   true,
}

func parse(s string) (*url.URL, bool) {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || strings.Trim(u.Path, "/") == "" {
		return nil, false
	}
	return u, true
}

// IsSharedURL reports whether s is a link-shortener URL that must be followed
// once before it can be resolved.
func IsSharedURL(s string) bool {
	u, ok := parse(s)
	return ok && strings.ToLower(u.Host) == sharedHost
}

// IsURL reports whether s is a SoundCloud permalink or shared link.
func IsURL(s string) bool {
	u, ok := parse(s)
	if !ok {
		return false
	}
	host := strings.ToLower(u.Host)
	return host == sharedHost || trackHosts[host]
}

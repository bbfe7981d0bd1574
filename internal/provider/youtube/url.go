package youtube

import (
	"fmt"
	"net/url"
	"strings"
)

var watchHosts = map[string]bool{
	"youtube.com":       true,
	"www.youtube.com":   true,
	"m.youtube.com":     true,
	"music.youtube.com": true,
}

const shortHost = "youtu.be"

// IsURL reports whether s is one of the YouTube URL shapes we can play:
// watch, shorts, /v/ and youtu.be short links.
func IsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
		return false
	}

	host := strings.ToLower(u.Host)
	if host == shortHost {
		return strings.Trim(u.Path, "/") != ""
	}
	if !watchHosts[host] {
		return false
	}
	return isWatchPath(u.Path) ||
		strings.HasPrefix(u.Path, "/shorts/") ||
		strings.HasPrefix(u.Path, "/v/")
}

// isWatchPath matches /watch and /watch/ID but not lookalikes such as
// /watchlater.
func isWatchPath(p string) bool {
	return p == "/watch" || strings.HasPrefix(p, "/watch/")
}

// VideoID extracts the video id from any URL accepted by IsURL.
//
//	https://www.youtube.com/watch?v=ID
//	https://www.youtube.com/watch/ID
//	https://www.youtube.com/shorts/ID
//	https://www.youtube.com/v/ID
//	https://youtu.be/ID
func VideoID(s string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid youtube url %q: %w", s, err)
	}

	var id string
	host := strings.ToLower(u.Host)
	switch {
	case host == shortHost:
		id = strings.Trim(u.Path, "/")
	case !watchHosts[host]:
		return "", fmt.Errorf("not a youtube url: %q", s)
	case isWatchPath(u.Path):
		id = u.Query().Get("v")
		if id == "" && u.Path != "/watch" {
			id = strings.TrimPrefix(u.Path, "/watch/")
		}
	case strings.HasPrefix(u.Path, "/shorts/"):
		id = strings.TrimPrefix(u.Path, "/shorts/")
	case strings.HasPrefix(u.Path, "/v/"):
		id = strings.TrimPrefix(u.Path, "/v/")
	}

	id = strings.Trim(id, "/")
	if id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("no video id in %q", s)
	}
	return id, nil
}

// WatchURL is the canonical URL for a video id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(id)
}

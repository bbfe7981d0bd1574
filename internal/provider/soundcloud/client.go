// Package soundcloud resolves SoundCloud permalinks to track metadata through
// the public api-v2 resolve endpoint.
package soundcloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/glizzus/jukebox/internal/media"
	"github.com/glizzus/jukebox/internal/provider"
)

const (
	DefaultBaseURL = "https://api-v2.soundcloud.com"

	providerName = "soundcloud"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	clientID   string
	baseURL    string
	httpClient HTTPClient
	// noRedirect must not follow redirects; it is used to read the
	// Location of shared links.
	noRedirect HTTPClient
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithRedirectClient replaces the client used for shared links. It must not
// follow redirects itself.
func WithRedirectClient(httpClient HTTPClient) Option {
	return func(c *Client) { c.noRedirect = httpClient }
}

func NewClient(clientID string, opts ...Option) *Client {
	c := &Client{
		clientID:   clientID,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		noRedirect: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type User struct {
	ID        uint64  `json:"id"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

// Track is the subset of the resolve payload we use.
type Track struct {
	ID           uint64  `json:"id"`
	Title        string  `json:"title"`
	ArtworkURL   *string `json:"artwork_url"`
	PermalinkURL string  `json:"permalink_url"`
	// Duration is in milliseconds.
	Duration uint64 `json:"duration"`
	User     User   `json:"user"`
}

// Metadata converts the track. Artwork falls back to the uploader's avatar.
func (t Track) Metadata() media.Metadata {
	thumb := ""
	switch {
	case t.ArtworkURL != nil && *t.ArtworkURL != "":
		thumb = *t.ArtworkURL
	case t.User.AvatarURL != nil:
		thumb = *t.User.AvatarURL
	}

	d := time.Duration(t.Duration) * time.Millisecond
	return media.Metadata{
		ID:           strconv.FormatUint(t.ID, 10),
		Title:        t.Title,
		URL:          t.PermalinkURL,
		ThumbnailURL: thumb,
		UploadedBy:   t.User.Username,
		Duration:     &d,
		Kind:         media.KindSoundCloud,
	}
}

type errorPayload struct {
	Errors []struct {
		ErrorMessage string `json:"error_message"`
	} `json:"errors"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// GetTrack resolves a permalink or shared link to its track.
func (c *Client) GetTrack(ctx context.Context, trackURL string) (Track, error) {
	if IsSharedURL(trackURL) {
		resolved, err := c.followShared(ctx, trackURL)
		if err != nil {
			return Track{}, err
		}
		trackURL = resolved
	}

	params := url.Values{
		"client_id": {c.clientID},
		"url":       {trackURL},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/resolve?"+params.Encode(), nil)
	if err != nil {
		return Track{}, provider.Transport(providerName, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Track{}, provider.Transport(providerName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Track{}, provider.Transport(providerName, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Track{}, remoteError(resp.StatusCode, body)
	}

	var track Track
	if err := json.Unmarshal(body, &track); err != nil {
		return Track{}, provider.Parse(providerName, err)
	}
	if track.ID == 0 {
		return Track{}, provider.Parse(providerName, errors.New("resolve returned no track id"))
	}
	return track, nil
}

// Get resolves trackURL and returns its metadata.
func (c *Client) Get(ctx context.Context, trackURL string) (media.Metadata, error) {
	track, err := c.GetTrack(ctx, trackURL)
	if err != nil {
		return media.Metadata{}, err
	}
	return track.Metadata(), nil
}

func (c *Client) followShared(ctx context.Context, sharedURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sharedURL, nil)
	if err != nil {
		return "", provider.Transport(providerName, err)
	}

	resp, err := c.noRedirect.Do(req)
	if err != nil {
		return "", provider.Transport(providerName, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
	default:
		return "", provider.Remote(providerName, resp.StatusCode, "shared link was not redirected")
	}

	loc, err := resp.Location()
	if err != nil {
		return "", provider.Remote(providerName, resp.StatusCode, "redirect has no location header")
	}
	return loc.String(), nil
}

func remoteError(status int, body []byte) error {
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err == nil {
		if len(payload.Errors) > 0 && payload.Errors[0].ErrorMessage != "" {
			return provider.Remote(providerName, status, payload.Errors[0].ErrorMessage)
		}
		if payload.Message != "" {
			code := payload.Code
			if code == 0 {
				code = status
			}
			return provider.Remote(providerName, code, payload.Message)
		}
	}
	if status == http.StatusNotFound {
		return provider.NotFound(providerName, "track not found")
	}
	return provider.Remote(providerName, status, fmt.Sprintf("%d %s", status, http.StatusText(status)))
}

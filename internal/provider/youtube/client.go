// Package youtube is a small client for the YouTube Data API v3.
// Only the two calls the player needs are implemented: videos-by-id and
// keyword search.
package youtube

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
	"github.com/glizzus/jukebox/internal/util"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

	providerName      = "youtube"
	defaultMaxResults = 10
)

// HTTPClient is an abstraction for making HTTP requests.
// The implementation is usually Go's stdlib http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPClient
	limiter    *rate.Limiter
	maxResults int
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithRateLimit caps outgoing requests per second to protect the API quota.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

func WithMaxResults(n int) Option {
	return func(c *Client) { c.maxResults = n }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		maxResults: defaultMaxResults,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type snippet struct {
	Title        *string              `json:"title"`
	ChannelTitle *string              `json:"channelTitle"`
	Thumbnails   map[string]thumbnail `json:"thumbnails"`
}

type contentDetails struct {
	Duration *string `json:"duration"`
}

type videoItem struct {
	ID             *string         `json:"id"`
	Snippet        *snippet        `json:"snippet"`
	ContentDetails *contentDetails `json:"contentDetails"`
}

type videoResult struct {
	Items []videoItem `json:"items"`
}

type searchItem struct {
	ID *struct {
		VideoID *string `json:"videoId"`
	} `json:"id"`
	Snippet *snippet `json:"snippet"`
}

type searchResult struct {
	Items []searchItem `json:"items"`
}

type errorPayload struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var errIncomplete = errors.New("youtube returned incomplete video data")

// Get fetches the metadata of a single video by id.
func (c *Client) Get(ctx context.Context, id string) (media.Metadata, error) {
	params := url.Values{
		"part": {"snippet,id,contentDetails"},
		"id":   {id},
	}

	var result videoResult
	if err := c.get(ctx, "/videos", params, &result); err != nil {
		return media.Metadata{}, err
	}

	switch len(result.Items) {
	case 0:
		return media.Metadata{}, provider.NotFound(providerName, fmt.Sprintf("video %q not found", id))
	case 1:
	default:
		return media.Metadata{}, fmt.Errorf("%w: %d videos for id %q", provider.ErrAmbiguousResult, len(result.Items), id)
	}

	item := result.Items[0]
	if item.ID == nil {
		return media.Metadata{}, provider.Parse(providerName, errIncomplete)
	}
	m, err := fromSnippet(*item.ID, item.Snippet)
	if err != nil {
		return media.Metadata{}, provider.Parse(providerName, err)
	}
	if item.ContentDetails != nil && item.ContentDetails.Duration != nil {
		if d, ok := ParseDuration(*item.ContentDetails.Duration); ok {
			m.Duration = &d
		}
	}
	return m, nil
}

// Search runs a keyword search restricted to videos. Results lacking an id,
// title, channel or thumbnail are dropped. Search results never carry a duration.
func (c *Client) Search(ctx context.Context, keyword string) ([]media.Metadata, error) {
	params := url.Values{
		"part":       {"snippet"},
		"type":       {"video"},
		"safeSearch": {"none"},
		"maxResults": {strconv.Itoa(c.maxResults)},
		"q":          {keyword},
	}

	var result searchResult
	if err := c.get(ctx, "/search", params, &result); err != nil {
		return nil, err
	}

	found := make([]media.Metadata, 0, len(result.Items))
	for _, item := range result.Items {
		if item.ID == nil || item.ID.VideoID == nil {
			continue
		}
		m, err := fromSnippet(*item.ID.VideoID, item.Snippet)
		if err != nil {
			continue
		}
		found = append(found, m)
	}

	if len(found) == 0 {
		return nil, provider.NotFound(providerName, fmt.Sprintf("no results for %q", keyword))
	}
	return found, nil
}

func fromSnippet(id string, s *snippet) (media.Metadata, error) {
	if id == "" || s == nil || s.Title == nil || s.ChannelTitle == nil {
		return media.Metadata{}, errIncomplete
	}
	thumb, ok := util.MaxBy(s.Thumbnails, func(t thumbnail) int { return t.Width * t.Height })
	if !ok || thumb.URL == "" {
		return media.Metadata{}, errIncomplete
	}

	return media.Metadata{
		ID:           id,
		Title:        *s.Title,
		URL:          WatchURL(id),
		ThumbnailURL: thumb.URL,
		UploadedBy:   *s.ChannelTitle,
		Kind:         media.KindYouTube,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return provider.Transport(providerName, err)
	}

	params.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return provider.Transport(providerName, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return provider.Transport(providerName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.Transport(providerName, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		var payload errorPayload
		if json.Unmarshal(body, &payload) == nil && payload.Error != nil {
			return provider.Remote(providerName, payload.Error.Code, payload.Error.Message)
		}
		return provider.Parse(providerName, err)
	}
	return nil
}

func remoteError(status int, body []byte) error {
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != nil {
		return provider.Remote(providerName, payload.Error.Code, payload.Error.Message)
	}
	return provider.Remote(providerName, status, http.StatusText(status))
}

package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://www.googleapis.com/youtube/v3"
	pageSize       = 50
)

// Video is one parsed item from the YouTube Data API v3.
type Video struct {
	VideoID      string
	Title        string
	Description  string
	ThumbnailURL string
	VideoURL     string
	Duration     string
	PublishedAt  time.Time
	ViewCount    uint64
	LikeCount    uint64
	ChannelTitle string
}

// Client is a thin typed wrapper around the YouTube Data API v3 endpoints this
// service needs: channels.list, playlistItems.list and videos.list.
type Client struct {
	apiKey     string
	channelID  string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey, channelID string) *Client {
	return &Client{
		apiKey:    apiKey,
		channelID: channelID,
		baseURL:   defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewClientWithBaseURL is used by tests to point the client at a local server.
func NewClientWithBaseURL(apiKey, channelID, baseURL string) *Client {
	c := NewClient(apiKey, channelID)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// ChannelVideos fetches up to maxResults videos from the channel's uploads
// playlist, newest first as the API returns them, resolving full details for
// each page of playlist items.
func (c *Client) ChannelVideos(ctx context.Context, maxResults int) ([]Video, error) {
	if c.channelID == "" {
		return nil, fmt.Errorf("youtube: no channel id configured")
	}

	uploadsPlaylistID, err := c.uploadsPlaylistID(ctx)
	if err != nil {
		return nil, err
	}

	var videos []Video
	pageToken := ""
	for len(videos) < maxResults {
		remaining := maxResults - len(videos)
		if remaining > pageSize {
			remaining = pageSize
		}

		page, nextToken, err := c.playlistItemsPage(ctx, uploadsPlaylistID, remaining, pageToken)
		if err != nil {
			return nil, err
		}
		if len(page) > 0 {
			details, err := c.videoDetails(ctx, page)
			if err != nil {
				return nil, err
			}
			videos = append(videos, details...)
		}

		if nextToken == "" {
			break
		}
		pageToken = nextToken
	}

	return videos, nil
}

func (c *Client) uploadsPlaylistID(ctx context.Context) (string, error) {
	query := url.Values{}
	query.Set("part", "contentDetails")
	query.Set("id", c.channelID)

	var resp channelListResponse
	if err := c.get(ctx, "/channels", query, &resp); err != nil {
		return "", err
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("youtube: channel %s not found", c.channelID)
	}

	uploads := resp.Items[0].ContentDetails.RelatedPlaylists.Uploads
	if uploads == "" {
		return "", fmt.Errorf("youtube: channel %s has no uploads playlist", c.channelID)
	}
	return uploads, nil
}

func (c *Client) playlistItemsPage(ctx context.Context, playlistID string, maxResults int, pageToken string) ([]string, string, error) {
	query := url.Values{}
	query.Set("part", "snippet")
	query.Set("playlistId", playlistID)
	query.Set("maxResults", strconv.Itoa(maxResults))
	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}

	var resp playlistItemsResponse
	if err := c.get(ctx, "/playlistItems", query, &resp); err != nil {
		return nil, "", err
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if id := item.Snippet.ResourceID.VideoID; id != "" {
			ids = append(ids, id)
		}
	}
	return ids, resp.NextPageToken, nil
}

func (c *Client) videoDetails(ctx context.Context, videoIDs []string) ([]Video, error) {
	query := url.Values{}
	query.Set("part", "snippet,contentDetails,statistics")
	query.Set("id", strings.Join(videoIDs, ","))

	var resp videoListResponse
	if err := c.get(ctx, "/videos", query, &resp); err != nil {
		return nil, err
	}

	videos := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		video, ok := parseVideoItem(item)
		if !ok {
			continue
		}
		videos = append(videos, video)
	}
	return videos, nil
}

// parseVideoItem maps one API item; items missing the fields we key on are
// skipped rather than failing the whole page.
func parseVideoItem(item videoItem) (Video, bool) {
	if item.ID == "" || item.Snippet.Title == "" {
		return Video{}, false
	}

	publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
	if err != nil {
		return Video{}, false
	}

	return Video{
		VideoID:      item.ID,
		Title:        item.Snippet.Title,
		Description:  item.Snippet.Description,
		ThumbnailURL: item.Snippet.Thumbnails.High.URL,
		VideoURL:     fmt.Sprintf("https://www.youtube.com/watch?v=%s", item.ID),
		Duration:     item.ContentDetails.Duration,
		PublishedAt:  publishedAt,
		ViewCount:    parseCount(item.Statistics.ViewCount),
		LikeCount:    parseCount(item.Statistics.LikeCount),
		ChannelTitle: item.Snippet.ChannelTitle,
	}, true
}

// parseCount handles the API's string-typed counters; absent or malformed
// counters read as zero.
func parseCount(raw string) uint64 {
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	query.Set("key", c.apiKey)
	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("youtube: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("youtube: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("youtube: %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("youtube: decode %s response: %w", path, err)
	}
	return nil
}

type channelListResponse struct {
	Items []struct {
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type playlistItemsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			ResourceID struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
}

type videoListResponse struct {
	Items []videoItem `json:"items"`
}

type videoItem struct {
	ID      string `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		PublishedAt  string `json:"publishedAt"`
		ChannelTitle string `json:"channelTitle"`
		Thumbnails   struct {
			High struct {
				URL string `json:"url"`
			} `json:"high"`
		} `json:"thumbnails"`
	} `json:"snippet"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
	Statistics struct {
		ViewCount string `json:"viewCount"`
		LikeCount string `json:"likeCount"`
	} `json:"statistics"`
}

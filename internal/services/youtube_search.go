package services

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"studymate-backend/internal/logger"
	"studymate-backend/internal/models"
)

// VideoSearcher finds videos for a free-text query.
type VideoSearcher interface {
	Search(ctx context.Context, query string, maxResults int64, order string) ([]models.YouTubeVideo, error)
}

type YouTubeSearchOptions struct {
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	// ClientOptions are appended after the API key. Tests use them to point
	// the client at a local server.
	ClientOptions []option.ClientOption
}

type YouTubeSearchService struct {
	svc        *youtube.Service
	timeout    time.Duration
	maxRetries int
	log        *logger.Logger
}

// NewYouTubeSearchService builds the Data API client. Without an API key the
// service is still returned, and every search fails with a ConfigError.
func NewYouTubeSearchService(ctx context.Context, opts YouTubeSearchOptions, log *logger.Logger) (*YouTubeSearchService, error) {
	s := &YouTubeSearchService{
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		log:        log.With("service", "youtube"),
	}
	if opts.APIKey == "" {
		return s, nil
	}

	clientOpts := append([]option.ClientOption{option.WithAPIKey(opts.APIKey)}, opts.ClientOptions...)
	svc, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}
	s.svc = svc
	return s, nil
}

func (s *YouTubeSearchService) Search(ctx context.Context, query string, maxResults int64, order string) ([]models.YouTubeVideo, error) {
	if s.svc == nil {
		return nil, &ConfigError{Service: "YouTube"}
	}

	var resp *youtube.SearchListResponse
	err := callWithRetry(ctx, s.timeout, s.maxRetries, func(ctx context.Context) error {
		var err error
		resp, err = s.svc.Search.List([]string{"snippet"}).
			Q(query).
			Type("video").
			MaxResults(maxResults).
			Order(order).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, &UpstreamError{Service: "YouTube", Err: err}
	}

	videos := make([]models.YouTubeVideo, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		var thumb *string
		if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.Default != nil && item.Snippet.Thumbnails.Default.Url != "" {
			u := item.Snippet.Thumbnails.Default.Url
			thumb = &u
		}
		videos = append(videos, models.YouTubeVideo{
			Title:     item.Snippet.Title,
			URL:       WatchURL(item.Id.VideoId, 0),
			Thumbnail: thumb,
		})
	}
	return videos, nil
}

// WatchURL builds a watch link, jumping to timestamp seconds when positive.
func WatchURL(videoID string, timestamp int) string {
	u := "https://www.youtube.com/watch?v=" + videoID
	if timestamp > 0 {
		u += fmt.Sprintf("&t=%ds", timestamp)
	}
	return u
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"depot-hub/constant"
	"depot-hub/entities"
	"depot-hub/pkg/youtube"
	"depot-hub/repository"
)

const (
	// Maximum successful fetches allowed in the trailing rate-limit window. The
	// window slides: every check recomputes "now - rateLimitWindow".
	maxFetchesPerWindow = 2
	rateLimitWindow     = 12 * time.Hour

	// A row counts as "updated" when it is newly created or its previous
	// updated_at is older than this. Updates landing twice within the same hour
	// are not counted a second time; that imprecision is intentional.
	staleThreshold = time.Hour

	defaultMaxResults = 50
)

// VideoProvider is the external source of channel video metadata.
type VideoProvider interface {
	ChannelVideos(ctx context.Context, maxResults int) ([]youtube.Video, error)
}

// FetchResult is the outcome of one fetch-and-store attempt. Failures carry an
// ErrorKind so callers can tell a skipped (rate-limited) attempt from a broken
// provider or store; none of them surface as Go errors.
type FetchResult struct {
	Success       bool
	Message       string
	ErrorKind     constant.FetchErrorKind
	VideosUpdated int
	TotalVideos   int
}

// ListResult is the outcome of a read path. Videos is nil on failure and on the
// force-refresh path, which reports counts only.
type ListResult struct {
	Success       bool
	Message       string
	ErrorKind     constant.FetchErrorKind
	Videos        []entities.RhombergVideo
	FromCache     bool
	TotalVideos   int
	VideosUpdated int
}

type Stats struct {
	TotalVideos   int64
	LatestFetch   *entities.VideoFetchLog
	CanFetchNow   bool
	RecentFetches []entities.VideoFetchLog
}

// VideoService mirrors the channel's video list into the store, bounded by the
// ledger-backed rate limiter, and serves cache-first reads. It keeps no state
// between calls; everything lives in the store.
type VideoService interface {
	FetchAndStore(ctx context.Context) FetchResult
	VideosForList(ctx context.Context) ListResult
	Videos(ctx context.Context, forceRefresh bool) ListResult
	HasTodaysData(ctx context.Context) (bool, error)
	CanFetchNow(ctx context.Context) (bool, error)
	Stats(ctx context.Context) (*Stats, error)
	FetchLogs(ctx context.Context, limit int) ([]entities.VideoFetchLog, error)
	ActiveVideos(ctx context.Context) ([]entities.RhombergVideo, error)
}

type videoService struct {
	repo       repository.Repository
	provider   VideoProvider
	thumbnails *ThumbnailStore
	maxResults int
	now        func() time.Time
}

type VideoOption func(*videoService)

// WithVideoClock overrides the clock, for tests.
func WithVideoClock(now func() time.Time) VideoOption {
	return func(s *videoService) {
		s.now = now
	}
}

// WithThumbnailStore enables best-effort thumbnail mirroring for newly stored
// videos.
func WithThumbnailStore(store *ThumbnailStore) VideoOption {
	return func(s *videoService) {
		s.thumbnails = store
	}
}

func WithMaxResults(maxResults int) VideoOption {
	return func(s *videoService) {
		if maxResults > 0 {
			s.maxResults = maxResults
		}
	}
}

func NewVideoService(repo repository.Repository, provider VideoProvider, opts ...VideoOption) VideoService {
	s := &videoService{
		repo:       repo,
		provider:   provider,
		maxResults: defaultMaxResults,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *videoService) CanFetchNow(ctx context.Context) (bool, error) {
	since := s.now().Add(-rateLimitWindow)
	count, err := s.repo.CountSuccessfulFetchesSince(ctx, since)
	if err != nil {
		return false, err
	}
	return count < maxFetchesPerWindow, nil
}

func (s *videoService) FetchAndStore(ctx context.Context) FetchResult {
	log := zerolog.Ctx(ctx)

	canFetch, err := s.CanFetchNow(ctx)
	if err != nil {
		return s.failure(ctx, constant.FetchErrorStorage, fmt.Sprintf("Error checking fetch rate limit: %s", err))
	}
	if !canFetch {
		// The rate-limit branch itself writes no ledger row.
		log.Info().Msg("rate limit reached, skipping video fetch")
		return FetchResult{
			Success:   false,
			Message:   fmt.Sprintf("Rate limit reached. Maximum %d fetches per %d hours.", maxFetchesPerWindow, int(rateLimitWindow.Hours())),
			ErrorKind: constant.FetchErrorRateLimited,
		}
	}

	videos, err := s.provider.ChannelVideos(ctx, s.maxResults)
	if err != nil {
		return s.failure(ctx, constant.FetchErrorProvider, fmt.Sprintf("Error fetching videos: %s", err))
	}
	if len(videos) == 0 {
		return s.failure(ctx, constant.FetchErrorEmptyResult, "No videos returned from YouTube API")
	}

	now := s.now()
	videosUpdated := 0
	var newlyStored []entities.RhombergVideo
	for _, video := range videos {
		record := videoToEntity(video, now)
		created, prevUpdatedAt, err := s.repo.UpsertVideo(ctx, record)
		if err != nil {
			return s.failure(ctx, constant.FetchErrorStorage, fmt.Sprintf("Error storing videos: %s", err))
		}
		if created {
			newlyStored = append(newlyStored, *record)
		}
		if created || prevUpdatedAt.Before(now.Add(-staleThreshold)) {
			videosUpdated++
		}
	}

	if s.thumbnails != nil && len(newlyStored) > 0 {
		s.thumbnails.Mirror(ctx, newlyStored)
	}

	if err := s.repo.CreateFetchLog(ctx, &entities.VideoFetchLog{
		FetchDate:     now,
		VideosFetched: len(videos),
		Success:       true,
	}); err != nil {
		log.Error().Err(err).Msg("failed to record successful fetch in ledger")
	}

	log.Info().
		Int("total_videos", len(videos)).
		Int("videos_updated", videosUpdated).
		Msg("stored videos from provider")
	return FetchResult{
		Success:       true,
		Message:       fmt.Sprintf("Successfully fetched and stored %d videos", len(videos)),
		VideosUpdated: videosUpdated,
		TotalVideos:   len(videos),
	}
}

// failure writes the failed attempt to the ledger before surfacing it, so the
// ledger stays the durable record of truth even when the caller ignores the
// response.
func (s *videoService) failure(ctx context.Context, kind constant.FetchErrorKind, message string) FetchResult {
	zerolog.Ctx(ctx).Error().Str("kind", string(kind)).Msg(message)
	if err := s.repo.CreateFetchLog(ctx, &entities.VideoFetchLog{
		FetchDate:    s.now(),
		Success:      false,
		ErrorMessage: message,
	}); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to record failed fetch in ledger")
	}
	return FetchResult{
		Success:   false,
		Message:   message,
		ErrorKind: kind,
	}
}

// VideosForList is the read path behind the public list endpoint. The cache
// check is existence-based: any stored row, active or not, means cached data is
// served and no provider call happens.
func (s *videoService) VideosForList(ctx context.Context) ListResult {
	hasData, err := s.repo.HasVideos(ctx)
	if err != nil {
		return ListResult{
			Success:   false,
			Message:   fmt.Sprintf("Error reading video cache: %s", err),
			ErrorKind: constant.FetchErrorStorage,
		}
	}

	if hasData {
		return s.cachedList(ctx)
	}

	result := s.FetchAndStore(ctx)
	if !result.Success {
		return ListResult{
			Success:   false,
			Message:   result.Message,
			ErrorKind: result.ErrorKind,
		}
	}

	videos, err := s.repo.ActiveVideos(ctx)
	if err != nil {
		return ListResult{
			Success:   false,
			Message:   fmt.Sprintf("Error reading video cache: %s", err),
			ErrorKind: constant.FetchErrorStorage,
		}
	}
	return ListResult{
		Success:       true,
		Message:       result.Message,
		Videos:        videos,
		FromCache:     false,
		TotalVideos:   len(videos),
		VideosUpdated: result.VideosUpdated,
	}
}

// Videos is the operational read path. Cache is authoritative once populated
// unless forceRefresh is set.
func (s *videoService) Videos(ctx context.Context, forceRefresh bool) ListResult {
	if !forceRefresh {
		hasData, err := s.repo.HasVideos(ctx)
		if err != nil {
			return ListResult{
				Success:   false,
				Message:   fmt.Sprintf("Error reading video cache: %s", err),
				ErrorKind: constant.FetchErrorStorage,
			}
		}
		if hasData {
			return s.cachedList(ctx)
		}
	}

	result := s.FetchAndStore(ctx)
	return ListResult{
		Success:       result.Success,
		Message:       result.Message,
		ErrorKind:     result.ErrorKind,
		TotalVideos:   result.TotalVideos,
		VideosUpdated: result.VideosUpdated,
	}
}

func (s *videoService) cachedList(ctx context.Context) ListResult {
	videos, err := s.repo.ActiveVideos(ctx)
	if err != nil {
		return ListResult{
			Success:   false,
			Message:   fmt.Sprintf("Error reading video cache: %s", err),
			ErrorKind: constant.FetchErrorStorage,
		}
	}
	return ListResult{
		Success:     true,
		Message:     fmt.Sprintf("Retrieved %d videos from cache", len(videos)),
		Videos:      videos,
		FromCache:   true,
		TotalVideos: len(videos),
	}
}

// HasTodaysData reports whether any active video was first fetched today. It is
// advisory, consumed by reporting; no read path gates on it.
func (s *videoService) HasTodaysData(ctx context.Context) (bool, error) {
	dayStart, dayEnd := dayBounds(s.now())
	return s.repo.HasVideosFetchedBetween(ctx, dayStart, dayEnd)
}

func (s *videoService) Stats(ctx context.Context) (*Stats, error) {
	totalVideos, err := s.repo.CountActiveVideos(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.LatestFetchLogs(ctx, 5)
	if err != nil {
		return nil, err
	}
	canFetch, err := s.CanFetchNow(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalVideos:   totalVideos,
		CanFetchNow:   canFetch,
		RecentFetches: recent,
	}
	if len(recent) > 0 {
		stats.LatestFetch = &recent[0]
	}
	return stats, nil
}

func (s *videoService) FetchLogs(ctx context.Context, limit int) ([]entities.VideoFetchLog, error) {
	return s.repo.LatestFetchLogs(ctx, limit)
}

func (s *videoService) ActiveVideos(ctx context.Context) ([]entities.RhombergVideo, error) {
	return s.repo.ActiveVideos(ctx)
}

func videoToEntity(video youtube.Video, fetchedAt time.Time) *entities.RhombergVideo {
	return &entities.RhombergVideo{
		VideoID:      video.VideoID,
		Title:        video.Title,
		Description:  video.Description,
		ThumbnailURL: video.ThumbnailURL,
		VideoURL:     video.VideoURL,
		Duration:     video.Duration,
		PublishedAt:  video.PublishedAt,
		ViewCount:    video.ViewCount,
		LikeCount:    video.LikeCount,
		ChannelTitle: video.ChannelTitle,
		FetchedAt:    fetchedAt,
		IsActive:     true,
	}
}

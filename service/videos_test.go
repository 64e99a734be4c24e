package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depot-hub/constant"
	"depot-hub/entities"
	"depot-hub/pkg/youtube"
	"depot-hub/repository"
)

type fakeProvider struct {
	videos []youtube.Video
	err    error
	calls  int
}

func (f *fakeProvider) ChannelVideos(ctx context.Context, maxResults int) ([]youtube.Video, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.videos, nil
}

func sampleVideos(n int) []youtube.Video {
	videos := make([]youtube.Video, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("vid-%03d", i)
		videos = append(videos, youtube.Video{
			VideoID:      id,
			Title:        fmt.Sprintf("Track renewal part %d", i),
			ThumbnailURL: fmt.Sprintf("https://img.example.com/%s.jpg", id),
			VideoURL:     fmt.Sprintf("https://www.youtube.com/watch?v=%s", id),
			Duration:     "PT4M13S",
			PublishedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
			ViewCount:    uint64(100 + i),
			LikeCount:    uint64(10 + i),
			ChannelTitle: "Rhomberg Sersa Rail Group",
		})
	}
	return videos
}

func addFetchLog(t *testing.T, repo repository.Repository, at time.Time, success bool) {
	t.Helper()
	require.NoError(t, repo.CreateFetchLog(context.Background(), &entities.VideoFetchLog{
		FetchDate: at,
		Success:   success,
	}))
}

func countFetchLogs(t *testing.T, repo repository.Repository) int {
	t.Helper()
	logs, err := repo.LatestFetchLogs(context.Background(), 100)
	require.NoError(t, err)
	return len(logs)
}

func TestFetchAndStoreStoresVideos(t *testing.T) {
	_, repo := newTestDB(t)
	provider := &fakeProvider{videos: sampleVideos(3)}
	svc := NewVideoService(repo, provider)
	ctx := context.Background()

	result := svc.FetchAndStore(ctx)
	require.True(t, result.Success, result.Message)
	assert.Equal(t, 3, result.TotalVideos)
	assert.Equal(t, 3, result.VideosUpdated)

	videos, err := repo.ActiveVideos(ctx)
	require.NoError(t, err)
	assert.Len(t, videos, 3)

	logs, err := repo.LatestFetchLogs(ctx, 5)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.True(t, logs[0].Success)
	assert.Equal(t, 3, logs[0].VideosFetched)
}

func TestFetchAndStoreUpsertIsIdempotent(t *testing.T) {
	_, repo := newTestDB(t)
	provider := &fakeProvider{videos: sampleVideos(2)}
	svc := NewVideoService(repo, provider)
	ctx := context.Background()

	first := svc.FetchAndStore(ctx)
	require.True(t, first.Success)
	assert.Equal(t, 2, first.VideosUpdated)

	// Second pass lands inside the one-hour staleness window: same rows, no
	// updated count.
	second := svc.FetchAndStore(ctx)
	require.True(t, second.Success, second.Message)
	assert.Equal(t, 0, second.VideosUpdated)
	assert.Equal(t, 2, second.TotalVideos)

	videos, err := repo.ActiveVideos(ctx)
	require.NoError(t, err)
	assert.Len(t, videos, 2, "upsert by video_id leaves exactly one row per video")
}

func TestFetchAndStoreCountsStaleRowsAsUpdated(t *testing.T) {
	db, repo := newTestDB(t)
	provider := &fakeProvider{videos: sampleVideos(1)}
	svc := NewVideoService(repo, provider)
	ctx := context.Background()

	require.True(t, svc.FetchAndStore(ctx).Success)

	// Age the row past the staleness threshold.
	require.NoError(t, db.Model(&entities.RhombergVideo{}).
		Where("video_id = ?", "vid-000").
		Update("updated_at", time.Now().UTC().Add(-2*time.Hour)).Error)

	result := svc.FetchAndStore(ctx)
	require.True(t, result.Success)
	assert.Equal(t, 1, result.VideosUpdated)
}

func TestFetchAndStoreRateLimited(t *testing.T) {
	_, repo := newTestDB(t)
	provider := &fakeProvider{videos: sampleVideos(1)}
	svc := NewVideoService(repo, provider)
	ctx := context.Background()

	now := time.Now().UTC()
	addFetchLog(t, repo, now.Add(-2*time.Hour), true)
	addFetchLog(t, repo, now.Add(-1*time.Hour), true)

	result := svc.FetchAndStore(ctx)
	assert.False(t, result.Success)
	assert.Equal(t, constant.FetchErrorRateLimited, result.ErrorKind)
	assert.Equal(t, 0, result.VideosUpdated)
	assert.Equal(t, 0, provider.calls, "rate-limited attempt must not reach the provider")
	assert.Equal(t, 2, countFetchLogs(t, repo), "the rate-limit branch writes no ledger row")
}

func TestFetchAndStoreWindowSlides(t *testing.T) {
	_, repo := newTestDB(t)
	provider := &fakeProvider{videos: sampleVideos(1)}
	svc := NewVideoService(repo, provider)

	now := time.Now().UTC()
	addFetchLog(t, repo, now.Add(-13*time.Hour), true)
	addFetchLog(t, repo, now.Add(-12*time.Hour-time.Minute), true)
	// Failed attempts never count against the limit.
	addFetchLog(t, repo, now.Add(-1*time.Hour), false)

	result := svc.FetchAndStore(context.Background())
	assert.True(t, result.Success, "fetches outside the trailing window must not count")
}

func TestFetchAndStoreEmptyResult(t *testing.T) {
	_, repo := newTestDB(t)
	provider := &fakeProvider{}
	svc := NewVideoService(repo, provider)
	ctx := context.Background()

	result := svc.FetchAndStore(ctx)
	assert.False(t, result.Success)
	assert.Equal(t, constant.FetchErrorEmptyResult, result.ErrorKind)

	logs, err := repo.LatestFetchLogs(ctx, 5)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.False(t, logs[0].Success)
	assert.Equal(t, "No videos returned from YouTube API", logs[0].ErrorMessage)
}

func TestFetchAndStoreProviderError(t *testing.T) {
	_, repo := newTestDB(t)
	provider := &fakeProvider{err: errors.New("quota exceeded")}
	svc := NewVideoService(repo, provider)
	ctx := context.Background()

	result := svc.FetchAndStore(ctx)
	assert.False(t, result.Success)
	assert.Equal(t, constant.FetchErrorProvider, result.ErrorKind)

	logs, err := repo.LatestFetchLogs(ctx, 5)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.False(t, logs[0].Success)
	assert.Contains(t, logs[0].ErrorMessage, "quota exceeded")
}

func TestVideosForListFetchesOnlyWhenEmpty(t *testing.T) {
	_, repo := newTestDB(t)
	provider := &fakeProvider{videos: sampleVideos(2)}
	svc := NewVideoService(repo, provider)
	ctx := context.Background()

	result := svc.VideosForList(ctx)
	require.True(t, result.Success, result.Message)
	assert.False(t, result.FromCache)
	assert.Len(t, result.Videos, 2)
	assert.Equal(t, 1, provider.calls)

	cached := svc.VideosForList(ctx)
	require.True(t, cached.Success)
	assert.True(t, cached.FromCache)
	assert.Len(t, cached.Videos, 2)
	assert.Equal(t, 1, provider.calls, "cache-first read never refetches a populated store")
}

func TestVideosForListCacheCheckIsExistenceBased(t *testing.T) {
	_, repo := newTestDB(t)
	provider := &fakeProvider{videos: sampleVideos(2)}
	svc := NewVideoService(repo, provider)
	ctx := context.Background()

	// One inactive row: the store is non-empty, so the endpoint serves cache
	// even though nothing is visible.
	hidden := &entities.RhombergVideo{
		VideoID:     "hidden-001",
		Title:       "Hidden",
		PublishedAt: time.Now().UTC(),
		FetchedAt:   time.Now().UTC(),
		IsActive:    false,
	}
	_, _, err := repo.UpsertVideo(ctx, hidden)
	require.NoError(t, err)

	result := svc.VideosForList(ctx)
	require.True(t, result.Success)
	assert.True(t, result.FromCache)
	assert.Empty(t, result.Videos)
	assert.Equal(t, 0, provider.calls)
}

func TestVideosForListForwardsFetchFailure(t *testing.T) {
	_, repo := newTestDB(t)
	provider := &fakeProvider{err: errors.New("connection refused")}
	svc := NewVideoService(repo, provider)

	result := svc.VideosForList(context.Background())
	assert.False(t, result.Success)
	assert.Equal(t, constant.FetchErrorProvider, result.ErrorKind)
}

func TestVideosForceRefresh(t *testing.T) {
	_, repo := newTestDB(t)
	provider := &fakeProvider{videos: sampleVideos(1)}
	svc := NewVideoService(repo, provider)
	ctx := context.Background()

	require.True(t, svc.Videos(ctx, false).Success)
	assert.Equal(t, 1, provider.calls)

	// Populated store without force serves cache.
	cached := svc.Videos(ctx, false)
	assert.True(t, cached.FromCache)
	assert.Equal(t, 1, provider.calls)

	forced := svc.Videos(ctx, true)
	assert.True(t, forced.Success)
	assert.False(t, forced.FromCache)
	assert.Equal(t, 2, provider.calls)
}

func TestHasTodaysData(t *testing.T) {
	_, repo := newTestDB(t)
	provider := &fakeProvider{videos: sampleVideos(1)}
	svc := NewVideoService(repo, provider)
	ctx := context.Background()

	fresh, err := svc.HasTodaysData(ctx)
	require.NoError(t, err)
	assert.False(t, fresh)

	require.True(t, svc.FetchAndStore(ctx).Success)

	fresh, err = svc.HasTodaysData(ctx)
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestStats(t *testing.T) {
	_, repo := newTestDB(t)
	provider := &fakeProvider{videos: sampleVideos(3)}
	svc := NewVideoService(repo, provider)
	ctx := context.Background()

	require.True(t, svc.FetchAndStore(ctx).Success)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalVideos)
	require.NotNil(t, stats.LatestFetch)
	assert.Equal(t, 3, stats.LatestFetch.VideosFetched)
	assert.True(t, stats.CanFetchNow, "one fetch in the window leaves room for one more")
	assert.Len(t, stats.RecentFetches, 1)
}

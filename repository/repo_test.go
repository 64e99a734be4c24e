package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"depot-hub/entities"
)

func newTestRepo(t *testing.T) (*gorm.DB, Repository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	repo := NewWithDB(db)
	require.NoError(t, repo.AutoMigrate())
	return db, repo
}

func sampleVideo(videoID string, fetchedAt time.Time) *entities.RhombergVideo {
	return &entities.RhombergVideo{
		VideoID:      videoID,
		Title:        "Bridge renewal",
		ThumbnailURL: "https://img.example.com/" + videoID + ".jpg",
		VideoURL:     "https://www.youtube.com/watch?v=" + videoID,
		Duration:     "PT2M",
		PublishedAt:  time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
		ViewCount:    42,
		LikeCount:    7,
		ChannelTitle: "Rhomberg Sersa Rail Group",
		FetchedAt:    fetchedAt,
		IsActive:     true,
	}
}

func TestUpsertVideoCreateThenOverwrite(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()
	fetchedAt := time.Now().UTC()

	created, prev, err := repo.UpsertVideo(ctx, sampleVideo("abc123", fetchedAt))
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, prev.IsZero())

	// Overwrite with changed fields; the row id and fetched_at stay put.
	update := sampleVideo("abc123", fetchedAt.Add(time.Hour))
	update.Title = "Bridge renewal, day two"
	update.ViewCount = 100

	created, prev, err = repo.UpsertVideo(ctx, update)
	require.NoError(t, err)
	assert.False(t, created)
	assert.False(t, prev.IsZero())

	videos, err := repo.ActiveVideos(ctx)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "Bridge renewal, day two", videos[0].Title)
	assert.EqualValues(t, 100, videos[0].ViewCount)
	assert.WithinDuration(t, fetchedAt, videos[0].FetchedAt, time.Second, "fetched_at is set once on insert")
}

func TestUpsertVideoKeepsSoftHiddenVideosHidden(t *testing.T) {
	db, repo := newTestRepo(t)
	ctx := context.Background()
	fetchedAt := time.Now().UTC()

	created, _, err := repo.UpsertVideo(ctx, sampleVideo("hid001", fetchedAt))
	require.NoError(t, err)
	require.True(t, created)

	// Hide the video the way an operator would, directly on the row.
	require.NoError(t, db.Model(&entities.RhombergVideo{}).
		Where("video_id = ?", "hid001").
		Update("is_active", false).Error)

	created, _, err = repo.UpsertVideo(ctx, sampleVideo("hid001", fetchedAt))
	require.NoError(t, err)
	require.False(t, created)

	var video entities.RhombergVideo
	require.NoError(t, db.Where("video_id = ?", "hid001").First(&video).Error)
	assert.False(t, video.IsActive, "refresh must not reactivate a hidden video")

	videos, err := repo.ActiveVideos(ctx)
	require.NoError(t, err)
	assert.Empty(t, videos)
}

func TestCountSuccessfulFetchesSince(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, log := range []entities.VideoFetchLog{
		{FetchDate: now.Add(-1 * time.Hour), Success: true},
		{FetchDate: now.Add(-11 * time.Hour), Success: true},
		{FetchDate: now.Add(-13 * time.Hour), Success: true},
		{FetchDate: now.Add(-2 * time.Hour), Success: false},
	} {
		l := log
		require.NoError(t, repo.CreateFetchLog(ctx, &l))
	}

	count, err := repo.CountSuccessfulFetchesSince(ctx, now.Add(-12*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestFindVisitorByIdentityIgnoresEmployees(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	employee := entities.NewEmployeeCheckIn("E1", "Unknown", now)
	employee.Company = "Acme"
	employee.Reason = "delivery"
	employee.Name = "Jo"
	require.NoError(t, repo.CreateCheckInRecord(ctx, employee))

	found, err := repo.FindVisitorByIdentity(ctx, "Acme", "Jo", "delivery")
	require.NoError(t, err)
	assert.Nil(t, found, "employee rows never match visitor identity lookups")

	visitor := entities.NewVisitorCheckIn("Acme", "Jo", "delivery", now)
	require.NoError(t, repo.CreateCheckInRecord(ctx, visitor))

	found, err = repo.FindVisitorByIdentity(ctx, "Acme", "Jo", "delivery")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, visitor.ID, found.ID)
}

func TestLatestFetchLogsNewestFirst(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	older := &entities.VideoFetchLog{FetchDate: now.Add(-2 * time.Hour), Success: true}
	newer := &entities.VideoFetchLog{FetchDate: now.Add(-1 * time.Hour), Success: false}
	require.NoError(t, repo.CreateFetchLog(ctx, older))
	require.NoError(t, repo.CreateFetchLog(ctx, newer))

	logs, err := repo.LatestFetchLogs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, newer.ID, logs[0].ID)
}

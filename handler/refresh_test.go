package handler

import (
	"context"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"depot-hub/pkg/youtube"
	"depot-hub/repository"
	"depot-hub/service"
)

func newTestDeps(t *testing.T) (ServiceDependencies, *stubProvider) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	repo := repository.NewWithDB(db)
	require.NoError(t, repo.AutoMigrate())

	provider := &stubProvider{videos: []youtube.Video{{
		VideoID:     "vid-100",
		Title:       "Tamping run",
		PublishedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}}}

	return ServiceDependencies{
		CheckInService: service.NewCheckInService(repo),
		VideoService:   service.NewVideoService(repo, provider),
	}, provider
}

func TestRefreshHandlerFetchesOnEmptyCache(t *testing.T) {
	deps, provider := newTestDeps(t)

	msg := amqp.Delivery{Body: []byte(`{"force":false,"requested_by":"cron"}`)}
	require.NoError(t, RefreshHandler(context.Background(), msg, deps))
	assert.Equal(t, 1, provider.calls)

	// Cache is now populated; without force the next message is a no-op.
	require.NoError(t, RefreshHandler(context.Background(), msg, deps))
	assert.Equal(t, 1, provider.calls)

	forced := amqp.Delivery{Body: []byte(`{"force":true,"requested_by":"ops"}`)}
	require.NoError(t, RefreshHandler(context.Background(), forced, deps))
	assert.Equal(t, 2, provider.calls)
}

func TestRefreshHandlerRejectsMalformedMessage(t *testing.T) {
	deps, provider := newTestDeps(t)

	msg := amqp.Delivery{Body: []byte(`{not json`)}
	assert.Error(t, RefreshHandler(context.Background(), msg, deps))
	assert.Equal(t, 0, provider.calls)
}

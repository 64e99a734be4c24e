package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"depot-hub/constant"
	"depot-hub/entities"
)

// Repository is the single persistence surface for both the check-in tracker and
// the video cache. All state lives here; the services on top are stateless.
type Repository interface {
	// Transaction runs callback against a transaction-scoped Repository. The
	// check-then-insert flows must go through this so the existence check and the
	// write commit or fail as one unit.
	Transaction(ctx context.Context, callback func(r Repository) error, opts ...*sql.TxOptions) error
	AutoMigrate() error

	CreateCheckInRecord(ctx context.Context, record *entities.CheckInRecord) error
	SaveCheckInRecord(ctx context.Context, record *entities.CheckInRecord) error
	FindCheckInRecordByID(ctx context.Context, id uint) (*entities.CheckInRecord, error)
	// FindActiveEmployeeRecord returns the checked-in record for the employee
	// created within [dayStart, dayEnd), or nil when there is none.
	FindActiveEmployeeRecord(ctx context.Context, employeeID string, dayStart, dayEnd time.Time) (*entities.CheckInRecord, error)
	// FindVisitorByIdentity matches the (company, name, reason) triple across all
	// visitor records regardless of status or date, or returns nil.
	FindVisitorByIdentity(ctx context.Context, company, name, reason string) (*entities.CheckInRecord, error)
	EmployeeRecordsBetween(ctx context.Context, dayStart, dayEnd time.Time) ([]entities.CheckInRecord, error)
	AllCheckInRecords(ctx context.Context) ([]entities.CheckInRecord, error)

	HasVideos(ctx context.Context) (bool, error)
	ActiveVideos(ctx context.Context) ([]entities.RhombergVideo, error)
	CountActiveVideos(ctx context.Context) (int64, error)
	// UpsertVideo inserts or fully overwrites the row keyed by video.VideoID.
	// It reports whether the row was newly created and, when it already existed,
	// the updated_at value the row had before the overwrite. FetchedAt is only
	// written on insert.
	UpsertVideo(ctx context.Context, video *entities.RhombergVideo) (created bool, prevUpdatedAt time.Time, err error)
	HasVideosFetchedBetween(ctx context.Context, start, end time.Time) (bool, error)

	CreateFetchLog(ctx context.Context, log *entities.VideoFetchLog) error
	CountSuccessfulFetchesSince(ctx context.Context, since time.Time) (int64, error)
	LatestFetchLogs(ctx context.Context, limit int) ([]entities.VideoFetchLog, error)
}

type repo struct {
	db *gorm.DB
}

func NewRepo(db *sql.DB) Repository {
	gormDB, _ := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		},
	)
	return &repo{
		db: gormDB,
	}
}

// NewWithDB wraps an already opened gorm handle. Tests use this with sqlite.
func NewWithDB(db *gorm.DB) Repository {
	return &repo{db: db}
}

func (r *repo) AutoMigrate() error {
	return r.db.AutoMigrate(
		&entities.CheckInRecord{},
		&entities.RhombergVideo{},
		&entities.VideoFetchLog{},
	)
}

func (r *repo) Transaction(ctx context.Context, callback func(tr Repository) error, opts ...*sql.TxOptions) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return callback(&repo{db: tx})
	}, opts...)
}

func (r *repo) CreateCheckInRecord(ctx context.Context, record *entities.CheckInRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repo) SaveCheckInRecord(ctx context.Context, record *entities.CheckInRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *repo) FindCheckInRecordByID(ctx context.Context, id uint) (*entities.CheckInRecord, error) {
	record := &entities.CheckInRecord{}
	err := r.db.WithContext(ctx).First(record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *repo) FindActiveEmployeeRecord(ctx context.Context, employeeID string, dayStart, dayEnd time.Time) (*entities.CheckInRecord, error) {
	record := &entities.CheckInRecord{}
	err := r.db.WithContext(ctx).
		Where("kind = ?", constant.RecordKindEmployee).
		Where("employee_id = ?", employeeID).
		Where("status = ?", constant.StatusCheckedIn).
		Where("created_at >= ? AND created_at < ?", dayStart, dayEnd).
		First(record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *repo) FindVisitorByIdentity(ctx context.Context, company, name, reason string) (*entities.CheckInRecord, error) {
	record := &entities.CheckInRecord{}
	err := r.db.WithContext(ctx).
		Where("kind = ?", constant.RecordKindVisitor).
		Where("company = ? AND name = ? AND reason = ?", company, name, reason).
		First(record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *repo) EmployeeRecordsBetween(ctx context.Context, dayStart, dayEnd time.Time) ([]entities.CheckInRecord, error) {
	var records []entities.CheckInRecord
	err := r.db.WithContext(ctx).
		Where("kind = ?", constant.RecordKindEmployee).
		Where("created_at >= ? AND created_at < ?", dayStart, dayEnd).
		Order("created_at DESC, id DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) AllCheckInRecords(ctx context.Context) ([]entities.CheckInRecord, error) {
	var records []entities.CheckInRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) HasVideos(ctx context.Context) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.RhombergVideo{}).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) ActiveVideos(ctx context.Context) ([]entities.RhombergVideo, error) {
	var videos []entities.RhombergVideo
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("published_at DESC").
		Find(&videos).Error
	if err != nil {
		return nil, err
	}
	return videos, nil
}

func (r *repo) CountActiveVideos(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.RhombergVideo{}).
		Where("is_active = ?", true).
		Count(&count).Error
	return count, err
}

func (r *repo) UpsertVideo(ctx context.Context, video *entities.RhombergVideo) (bool, time.Time, error) {
	existing := &entities.RhombergVideo{}
	err := r.db.WithContext(ctx).Where("video_id = ?", video.VideoID).First(existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := r.db.WithContext(ctx).Create(video).Error; err != nil {
			return false, time.Time{}, err
		}
		return true, time.Time{}, nil
	}
	if err != nil {
		return false, time.Time{}, err
	}

	prev := existing.UpdatedAt
	updates := map[string]interface{}{
		"title":         video.Title,
		"description":   video.Description,
		"thumbnail_url": video.ThumbnailURL,
		"video_url":     video.VideoURL,
		"duration":      video.Duration,
		"published_at":  video.PublishedAt,
		"view_count":    video.ViewCount,
		"like_count":    video.LikeCount,
		"channel_title": video.ChannelTitle,
	}
	// is_active is deliberately absent: a soft-hidden video must stay hidden
	// across refreshes. It is only set on insert.
	err = r.db.WithContext(ctx).Model(&entities.RhombergVideo{}).
		Where("id = ?", existing.ID).
		Updates(updates).Error
	if err != nil {
		return false, time.Time{}, err
	}
	video.ID = existing.ID
	video.FetchedAt = existing.FetchedAt
	return false, prev, nil
}

func (r *repo) HasVideosFetchedBetween(ctx context.Context, start, end time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.RhombergVideo{}).
		Where("is_active = ?", true).
		Where("fetched_at >= ? AND fetched_at <= ?", start, end).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) CreateFetchLog(ctx context.Context, log *entities.VideoFetchLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *repo) CountSuccessfulFetchesSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.VideoFetchLog{}).
		Where("success = ?", true).
		Where("fetch_date >= ?", since).
		Count(&count).Error
	return count, err
}

func (r *repo) LatestFetchLogs(ctx context.Context, limit int) ([]entities.VideoFetchLog, error) {
	var logs []entities.VideoFetchLog
	err := r.db.WithContext(ctx).
		Order("fetch_date DESC, id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

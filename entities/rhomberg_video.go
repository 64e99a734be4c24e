package entities

import "time"

// RhombergVideo mirrors one video from the Rhomberg Sersa Rail Group channel.
// FetchedAt is set once on first insert and never touched by later upserts; it is
// the watermark for the "fetched today" check. UpdatedAt is bumped on every upsert.
type RhombergVideo struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	VideoID      string    `json:"video_id" gorm:"type:varchar(50);not null;uniqueIndex"`
	Title        string    `json:"title" gorm:"type:varchar(200);not null"`
	Description  string    `json:"description" gorm:"type:text"`
	ThumbnailURL string    `json:"thumbnail_url" gorm:"type:varchar(500)"`
	VideoURL     string    `json:"video_url" gorm:"type:varchar(500)"`
	Duration     string    `json:"duration" gorm:"type:varchar(20)"`
	PublishedAt  time.Time `json:"published_at"`
	ViewCount    uint64    `json:"view_count" gorm:"default:0"`
	LikeCount    uint64    `json:"like_count" gorm:"default:0"`
	ChannelTitle string    `json:"channel_title" gorm:"type:varchar(100);default:'Rhomberg Sersa Rail Group'"`
	FetchedAt    time.Time `json:"fetched_at" gorm:"<-:create"`
	UpdatedAt    time.Time `json:"updated_at"`
	// No column default: an explicit false on insert must stay false, and gorm
	// drops zero values for defaulted columns.
	IsActive bool `json:"is_active"`
}

func (RhombergVideo) TableName() string {
	return "rhomberg_videos"
}

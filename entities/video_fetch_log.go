package entities

import "time"

// VideoFetchLog is one row per fetch attempt, success or failure. Rows are never
// updated or deleted; the count of successful rows in the trailing window is the
// whole rate-limit state, so the limiter works across server instances sharing
// one store.
type VideoFetchLog struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	FetchDate     time.Time `json:"fetch_date" gorm:"index;<-:create"`
	VideosFetched int       `json:"videos_fetched" gorm:"default:0"`
	Success       bool      `json:"success" gorm:"default:true"`
	ErrorMessage  string    `json:"error_message" gorm:"type:text"`
}

func (VideoFetchLog) TableName() string {
	return "video_fetch_logs"
}

package dto

import (
	"time"

	"depot-hub/entities"
)

type CheckInRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,max=20"`
	Name       string `json:"name" binding:"max=100"`
}

type CheckOutRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,max=20"`
}

type DepotCheckInRequest struct {
	Company string `json:"company" binding:"required,max=100"`
	Name    string `json:"name" binding:"required,max=100"`
	Reason  string `json:"reason" binding:"required,max=100"`
}

type RecordResponse struct {
	Message string                  `json:"message"`
	Record  *entities.CheckInRecord `json:"record"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type DepotRecordResponse struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message"`
	Record  *entities.CheckInRecord `json:"record"`
}

type DepotErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type DepotListResponse struct {
	Success bool                     `json:"success"`
	Count   int                      `json:"count"`
	Records []entities.CheckInRecord `json:"records"`
}

type VideoListResponse struct {
	Success       bool                     `json:"success"`
	Message       string                   `json:"message"`
	Videos        []entities.RhombergVideo `json:"videos"`
	FromCache     bool                     `json:"from_cache"`
	FetchedToday  bool                     `json:"fetched_today"`
	TotalVideos   int                      `json:"total_videos"`
	VideosUpdated int                      `json:"videos_updated"`
}

type VideoErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type RefreshResponse struct {
	Message       string `json:"message"`
	VideosUpdated int    `json:"videos_updated"`
	TotalVideos   int    `json:"total_videos"`
	FromCache     bool   `json:"from_cache"`
}

type LatestFetch struct {
	Date          time.Time `json:"date"`
	VideosFetched int       `json:"videos_fetched"`
	Success       bool      `json:"success"`
}

type StatsResponse struct {
	TotalVideos   int64                    `json:"total_videos"`
	LatestFetch   *LatestFetch             `json:"latest_fetch"`
	CanFetchNow   bool                     `json:"can_fetch_now"`
	RecentFetches []entities.VideoFetchLog `json:"recent_fetches"`
}

// RefreshMessage arrives on the videos.refresh queue and drives the same
// service paths as the refresh endpoint.
type RefreshMessage struct {
	Force       bool   `json:"force"`
	RequestedBy string `json:"requested_by"`
}

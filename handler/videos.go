package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"depot-hub/dto"
	"depot-hub/service"
)

// YouTubeListHandler serves the public cache-first list endpoint.
func YouTubeListHandler(svc service.VideoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		result := svc.VideosForList(ctx)
		if !result.Success {
			c.JSON(http.StatusBadRequest, dto.VideoErrorResponse{
				Success: false,
				Error:   result.Message,
			})
			return
		}

		fetchedToday, err := svc.HasTodaysData(ctx)
		if err != nil {
			// Advisory only; a broken freshness check should not fail the read.
			zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to check today's data watermark")
		}

		c.JSON(http.StatusOK, dto.VideoListResponse{
			Success:       true,
			Message:       result.Message,
			Videos:        result.Videos,
			FromCache:     result.FromCache,
			FetchedToday:  fetchedToday,
			TotalVideos:   len(result.Videos),
			VideosUpdated: result.VideosUpdated,
		})
	}
}

// RefreshVideosHandler triggers a refresh. With force=true the rate-limit-aware
// fetch runs unconditionally; otherwise the cache-aware path decides.
func RefreshVideosHandler(svc service.VideoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		force := strings.EqualFold(c.DefaultQuery("force", "false"), "true")

		var result service.ListResult
		if force {
			fetched := svc.FetchAndStore(ctx)
			result = service.ListResult{
				Success:       fetched.Success,
				Message:       fetched.Message,
				ErrorKind:     fetched.ErrorKind,
				TotalVideos:   fetched.TotalVideos,
				VideosUpdated: fetched.VideosUpdated,
			}
		} else {
			result = svc.Videos(ctx, false)
		}

		if !result.Success {
			c.JSON(http.StatusBadRequest, dto.VideoErrorResponse{
				Success: false,
				Error:   result.Message,
			})
			return
		}

		c.JSON(http.StatusOK, dto.RefreshResponse{
			Message:       result.Message,
			VideosUpdated: result.VideosUpdated,
			TotalVideos:   result.TotalVideos,
			FromCache:     result.FromCache,
		})
	}
}

func VideoStatsHandler(svc service.VideoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svc.Stats(c.Request.Context())
		if err != nil {
			internalError(c, err, "failed to build video stats")
			return
		}

		resp := dto.StatsResponse{
			TotalVideos:   stats.TotalVideos,
			CanFetchNow:   stats.CanFetchNow,
			RecentFetches: stats.RecentFetches,
		}
		if stats.LatestFetch != nil {
			resp.LatestFetch = &dto.LatestFetch{
				Date:          stats.LatestFetch.FetchDate,
				VideosFetched: stats.LatestFetch.VideosFetched,
				Success:       stats.LatestFetch.Success,
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

func ListVideosHandler(svc service.VideoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		videos, err := svc.ActiveVideos(c.Request.Context())
		if err != nil {
			internalError(c, err, "failed to list videos")
			return
		}
		c.JSON(http.StatusOK, videos)
	}
}

func FetchLogsHandler(svc service.VideoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		logs, err := svc.FetchLogs(c.Request.Context(), 50)
		if err != nil {
			internalError(c, err, "failed to list fetch logs")
			return
		}
		c.JSON(http.StatusOK, logs)
	}
}

package handler

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"depot-hub/dto"
	"depot-hub/service"
)

type ServiceDependencies struct {
	CheckInService service.CheckInService
	VideoService   service.VideoService
}

// RefreshHandler consumes videos.refresh messages. It drives the same service
// paths as the HTTP refresh endpoint; a rate-limited or failed fetch is an
// outcome already recorded in the ledger, not a reason to redeliver.
func RefreshHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var refresh dto.RefreshMessage
	if err := json.Unmarshal(msg.Body, &refresh); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal refresh message")
		return err
	}

	zerolog.Ctx(ctx).Info().
		Bool("force", refresh.Force).
		Str("requested_by", refresh.RequestedBy).
		Msg("received video refresh message")

	var result service.ListResult
	if refresh.Force {
		fetched := deps.VideoService.FetchAndStore(ctx)
		result = service.ListResult{
			Success:       fetched.Success,
			Message:       fetched.Message,
			TotalVideos:   fetched.TotalVideos,
			VideosUpdated: fetched.VideosUpdated,
		}
	} else {
		result = deps.VideoService.Videos(ctx, false)
	}

	zerolog.Ctx(ctx).Info().
		Bool("success", result.Success).
		Int("videos_updated", result.VideosUpdated).
		Str("message", result.Message).
		Msg("video refresh message handled")
	return nil
}

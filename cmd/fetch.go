package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"depot-hub/config"
	"depot-hub/pkg/youtube"
	"depot-hub/repository"
	server2 "depot-hub/server"
	"depot-hub/service"
)

// fetch runs a one-shot video fetch, the operational counterpart of posting to
// the refresh endpoint. Without --force the cache-aware path decides whether a
// provider call happens at all.
func fetch(cfg *config.Config) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "fetch channel videos into the local cache",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := server2.SetupLogger(cfg)

			repo := repository.NewRepo(cfg.DB)
			if err := repo.AutoMigrate(); err != nil {
				zerolog.Ctx(ctx).Fatal().Err(err).Msg("failed to migrate schema")
			}

			provider := youtube.NewClient(cfg.YouTube.APIKey, cfg.YouTube.ChannelID)
			videoService := service.NewVideoService(repo, provider, service.WithMaxResults(cfg.YouTube.MaxResults))

			result := videoService.Videos(ctx, force)
			log := zerolog.Ctx(ctx).Info()
			if !result.Success {
				log = zerolog.Ctx(ctx).Error()
			}
			log.Bool("success", result.Success).
				Bool("from_cache", result.FromCache).
				Int("videos_updated", result.VideosUpdated).
				Int("total_videos", result.TotalVideos).
				Msg(result.Message)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "fetch even if cached data exists")
	return cmd
}

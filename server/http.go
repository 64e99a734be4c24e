package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"depot-hub/config"
	"depot-hub/constant"
	depotHandler "depot-hub/handler"
	"depot-hub/pkg/rabbitmq"
	"depot-hub/pkg/youtube"
	"depot-hub/repository"
	"depot-hub/service"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(SetupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	repo := repository.NewRepo(cfg.DB)
	if err := repo.AutoMigrate(); err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("failed to migrate schema")
	}

	checkInService := service.NewCheckInService(repo)

	provider := youtube.NewClient(cfg.YouTube.APIKey, cfg.YouTube.ChannelID)
	videoOpts := []service.VideoOption{service.WithMaxResults(cfg.YouTube.MaxResults)}
	if cfg.Storage != nil {
		videoOpts = append(videoOpts, service.WithThumbnailStore(service.NewThumbnailStore(cfg.Storage, cfg.MinIOBucket)))
	}
	videoService := service.NewVideoService(repo, provider, videoOpts...)

	serviceDeps := depotHandler.ServiceDependencies{
		CheckInService: checkInService,
		VideoService:   videoService,
	}

	if cfg.Queue != nil {
		conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("NewRabbitMQConn")
		} else {
			refreshConsumer := rabbitmq.NewRefreshConsumer(conn, cfg.Queue, cfg.Server.Workers, depotHandler.RefreshHandler)
			go func() {
				if err := refreshConsumer.Consume(ctx, serviceDeps); err != nil {
					zerolog.Ctx(ctx).Error().Err(err).Msg("refresh consumer error")
				}
			}()
		}
	}

	r := gin.Default()
	r.Use(depotHandler.RequestID(*zerolog.Ctx(ctx)))
	registerRoutes(r, serviceDeps)

	handler := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("start http server")
		if err := handler.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	if err := handler.Shutdown(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
}

func registerRoutes(r *gin.Engine, deps depotHandler.ServiceDependencies) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	staff := r.Group("/api/staff")
	{
		staff.GET("/checkin-records/", depotHandler.TodayRecordsHandler(deps.CheckInService))
		staff.POST("/checkin/", depotHandler.CheckInHandler(deps.CheckInService))
		staff.POST("/checkout/", depotHandler.CheckOutHandler(deps.CheckInService))
		staff.GET("/status/", depotHandler.StaffStatusHandler(deps.CheckInService))
	}

	depot := r.Group("/api/depot")
	{
		depot.GET("/checkin/", depotHandler.DepotCheckInHandler(deps.CheckInService))
		depot.POST("/checkin/", depotHandler.DepotCheckInHandler(deps.CheckInService))
		depot.POST("/checkout/:id/", depotHandler.DepotCheckOutHandler(deps.CheckInService))
		depot.POST("/recheckin/:id/", depotHandler.DepotReCheckInHandler(deps.CheckInService))
	}

	r.GET("/api/youtube/list/", depotHandler.YouTubeListHandler(deps.VideoService))

	videos := r.Group("/api/videos")
	{
		videos.GET("/", depotHandler.ListVideosHandler(deps.VideoService))
		videos.POST("/refresh/", depotHandler.RefreshVideosHandler(deps.VideoService))
		videos.GET("/stats/", depotHandler.VideoStatsHandler(deps.VideoService))
		videos.GET("/logs/", depotHandler.FetchLogsHandler(deps.VideoService))
	}
}

func SetupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Log to standard output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}

package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/The1Divider/Bathbot/chat"
	"github.com/The1Divider/Bathbot/config"
	"github.com/The1Divider/Bathbot/game"
	"github.com/The1Divider/Bathbot/migrations"
	"github.com/The1Divider/Bathbot/render"
	"github.com/The1Divider/Bathbot/similarity"
	"github.com/The1Divider/Bathbot/storage"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func createServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.GET("/health", func(ctx *gin.Context) { ctx.String(http.StatusOK, "healthy") })

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}

	if err := migrations.Migrate(cfg.PostgresURL); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	repo, err := storage.NewPostgresRepo(context.Background(), cfg.PostgresURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer repo.Close()

	settings := game.Settings{
		RoundTimeout:     cfg.RoundTimeout,
		RequestTimeout:   cfg.RequestTimeout,
		HistorySize:      cfg.HistorySize,
		MinScoredCatalog: cfg.MinScoredCatalog,
		Thresholds:       similarity.Thresholds{Edit: cfg.EditThreshold, Gestalt: cfg.GestaltThreshold},
		MaxReveal:        cfg.MaxReveal,
	}

	gateway := chat.NewGateway(logger)
	registry := game.NewRegistry()
	redactor := render.NewRedactor(cfg.ImageDir, cfg.MaxReveal)

	gameHandler := game.NewGameHandler(registry, repo, repo, gateway, redactor, settings, logger)

	r := createServer(cfg.AllowedOrigins)

	{
		gameGroup := r.Group("/game")
		gameGroup.POST("/:channel/start", gameHandler.StartHandler)
		gameGroup.POST("/:channel/setup", gameHandler.SetupHandler)
		gameGroup.POST("/:channel/begin", gameHandler.BeginHandler)
		gameGroup.POST("/:channel/cancel", gameHandler.CancelHandler)
		gameGroup.POST("/:channel/stop", gameHandler.StopHandler)
		gameGroup.POST("/:channel/restart", gameHandler.RestartHandler)
		gameGroup.GET("/:channel/image", gameHandler.ImageHandler)
		gameGroup.GET("/:channel/hint", gameHandler.HintHandler)
	}

	r.GET("/leaderboard", gameHandler.LeaderboardHandler)

	r.GET("/ws/:channel", func(ctx *gin.Context) {
		user := ctx.Query("user")
		if user == "" {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing-user"})
			return
		}
		name := ctx.Query("name")
		if name == "" {
			name = user
		}

		conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		gateway.ServeWS(conn, ctx.Param("channel"), user, name)
	})

	logger.Info().Str("addr", cfg.Addr).Msg("starting server")
	if err := r.Run(cfg.Addr); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

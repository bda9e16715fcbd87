package game

import (
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/The1Divider/Bathbot/chat"
	"github.com/The1Divider/Bathbot/domain"
)

// GameHandler exposes the engine's control surface over HTTP: session
// setup, lifecycle signals, and the bounded image/hint reads.
type GameHandler struct {
	registry  *Registry
	catalog   Catalog
	scores    ScoreStore
	transport chat.Transport
	renderer  Renderer
	settings  Settings
	log       zerolog.Logger
}

func NewGameHandler(registry *Registry, catalog Catalog, scores ScoreStore,
	transport chat.Transport, renderer Renderer, settings Settings, log zerolog.Logger) *GameHandler {

	return &GameHandler{
		registry:  registry,
		catalog:   catalog,
		scores:    scores,
		transport: transport,
		renderer:  renderer,
		settings:  settings,
		log:       log,
	}
}

type userRequest struct {
	User string `json:"user" binding:"required"`
}

type setupRequest struct {
	User       string   `json:"user" binding:"required"`
	Included   []string `json:"included"`
	Excluded   []string `json:"excluded"`
	Difficulty string   `json:"difficulty"`
	Effects    []string `json:"effects"`
}

// StartHandler creates a session in setup state owned by the caller.
func (h *GameHandler) StartHandler(ctx *gin.Context) {
	channel := ctx.Param("channel")

	var req userRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-request-format"})
		return
	}

	if err := h.registry.Create(channel, req.User); err != nil {
		ctx.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "game-already-exists"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"channel": channel, "owner": req.User})
}

// SetupHandler updates the filters, difficulty, and effects of a session
// still in setup. Owner only.
func (h *GameHandler) SetupHandler(ctx *gin.Context) {
	channel := ctx.Param("channel")

	var req setupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-request-format"})
		return
	}

	err := h.registry.MutateSetup(channel, req.User, func(s *Setup) {
		s.Included = domain.ParseTags(req.Included)
		s.Excluded = domain.ParseTags(req.Excluded)
		s.Difficulty = domain.ParseDifficulty(req.Difficulty)
		s.Effects = domain.ParseEffects(req.Effects)
	})
	if err != nil {
		abortWithGameError(ctx, err)
		return
	}

	setup, _ := h.registry.PeekSetup(channel)
	ctx.JSON(http.StatusOK, gin.H{
		"included":   setup.Included.Join(", "),
		"excluded":   setup.Excluded.Join(", "),
		"difficulty": string(setup.Difficulty),
		"effects":    setup.Effects.Join(", "),
	})
}

// BeginHandler transitions a configured session to running: the eligible
// catalog is fetched and the loop spawned atomically with the state change.
func (h *GameHandler) BeginHandler(ctx *gin.Context) {
	channel := ctx.Param("channel")

	var req userRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-request-format"})
		return
	}

	var count int
	err := h.registry.BeginRunning(channel, req.User, func(setup Setup) (*Handle, error) {
		items, err := h.catalog.ListEligible(ctx.Request.Context(), setup.Included, setup.Excluded)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, domain.ErrEmptyCatalog
		}

		count = len(items)
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))

		return Start(channel, setup, items, h.settings,
			h.registry, h.transport, h.scores, h.renderer, rng, h.log), nil
	})
	if err != nil {
		abortWithGameError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"channel": channel, "items": count})
}

// CancelHandler aborts a session that is still in setup. Owner only.
func (h *GameHandler) CancelHandler(ctx *gin.Context) {
	channel := ctx.Param("channel")

	var req userRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-request-format"})
		return
	}

	if err := h.registry.CancelSetup(channel, req.User); err != nil {
		abortWithGameError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"channel": channel, "cancelled": true})
}

// StopHandler signals the running loop to finish after the current round.
func (h *GameHandler) StopHandler(ctx *gin.Context) {
	handle, err := h.registry.RunningHandle(ctx.Param("channel"))
	if err != nil {
		abortWithGameError(ctx, err)
		return
	}

	handle.Stop()
	ctx.JSON(http.StatusOK, gin.H{"stopping": true})
}

// RestartHandler signals the running loop to skip the current round.
func (h *GameHandler) RestartHandler(ctx *gin.Context) {
	handle, err := h.registry.RunningHandle(ctx.Param("channel"))
	if err != nil {
		abortWithGameError(ctx, err)
		return
	}

	handle.Restart()
	ctx.JSON(http.StatusOK, gin.H{"restarting": true})
}

// ImageHandler returns the current (one step further revealed) round image.
func (h *GameHandler) ImageHandler(ctx *gin.Context) {
	handle, err := h.registry.RunningHandle(ctx.Param("channel"))
	if err != nil {
		abortWithGameError(ctx, err)
		return
	}

	data, err := handle.CurrentImage()
	if err != nil {
		abortWithGameError(ctx, err)
		return
	}

	ctx.Data(http.StatusOK, "image/png", data)
}

// HintHandler returns the next hint for the current round.
func (h *GameHandler) HintHandler(ctx *gin.Context) {
	handle, err := h.registry.RunningHandle(ctx.Param("channel"))
	if err != nil {
		abortWithGameError(ctx, err)
		return
	}

	hint, err := handle.Hint()
	if err != nil {
		abortWithGameError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"hint": hint})
}

// LeaderboardHandler lists the best persisted win counts.
func (h *GameHandler) LeaderboardHandler(ctx *gin.Context) {
	limit := 10
	if v := ctx.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	entries, err := h.scores.TopScores(ctx.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load leaderboard")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}

	out := make([]gin.H, 0, len(entries))
	for i, e := range entries {
		out = append(out, gin.H{"rank": i + 1, "player": e.PlayerID, "wins": e.Wins})
	}

	ctx.JSON(http.StatusOK, gin.H{"leaderboard": out})
}

func abortWithGameError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNoSetup):
		ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no-setup-in-progress"})
	case errors.Is(err, domain.ErrNotSetupOwner):
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not-setup-owner"})
	case errors.Is(err, domain.ErrNoActiveLoop):
		ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no-active-game"})
	case errors.Is(err, domain.ErrEmptyCatalog):
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "no-matching-items"})
	case errors.Is(err, domain.ErrRequestTimeout):
		ctx.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{"error": "request-timeout"})
	default:
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
	}
}

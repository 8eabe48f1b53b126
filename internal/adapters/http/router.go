package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/akarpov/Mingle/internal/adapters/signal"
	"github.com/akarpov/Mingle/internal/app"
	"github.com/akarpov/Mingle/internal/auth"
	"github.com/akarpov/Mingle/internal/config"
	"github.com/akarpov/Mingle/internal/core"
	"github.com/akarpov/Mingle/internal/domain"
)

// AuthMiddleware verifies the bearer credential and stashes the subject
// identity on the context. Browser WebSocket clients cannot set headers,
// so ?token= is accepted on the same verification path.
func AuthMiddleware(gw *auth.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credential", "code": "auth_invalid"})
			return
		}
		id, err := gw.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": core.CodeOf(err)})
			return
		}
		c.Set("identity", string(id))
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, orch *app.Orchestrator, gw *auth.Gateway) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("MingleSessions", store))

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	// POST /api/auth/token — bootstrap a credential for an anonymous client.
	api.POST("/auth/token", func(c *gin.Context) {
		var req struct {
			ClientID string `json:"clientId"`
		}
		if err := c.BindJSON(&req); err != nil || req.ClientID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid clientId", "code": "validation"})
			return
		}
		token, err := gw.Issue(domain.UserID(req.ClientID), 0)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": core.CodeOf(err)})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"token":     token,
			"expiresIn": int64(gw.DefaultTTL().Seconds()),
		})
	})

	authed := api.Group("")
	authed.Use(AuthMiddleware(gw))

	// POST /api/rooms — external room-creation contract.
	authed.POST("/rooms", func(c *gin.Context) {
		var req struct {
			MaxParticipants int   `json:"maxParticipants"`
			Timeout         int64 `json:"timeout"` // milliseconds
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload", "code": "validation"})
			return
		}
		if req.MaxParticipants != 0 && req.MaxParticipants != domain.MaxParticipants {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rooms hold exactly two participants", "code": "capacity"})
			return
		}
		room := orch.Rooms.CreateEmptyRoom(time.Duration(req.Timeout) * time.Millisecond)
		c.JSON(http.StatusOK, gin.H{"roomId": room.ID})
	})

	authed.DELETE("/rooms/:roomId", func(c *gin.Context) {
		id := domain.RoomID(c.Param("roomId"))
		if !orch.CloseRoomByID(id) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.Status(http.StatusOK)
	})

	authed.GET("/stats", func(c *gin.Context) {
		rs := orch.Rooms.Stats()
		c.JSON(http.StatusOK, gin.H{
			"totalRooms":          rs.TotalRooms,
			"activeConnections":   orch.Registry.Count(),
			"averageCallDuration": rs.AverageCallDuration.Milliseconds(),
			"totalBandwidth":      orch.Relay.BytesForwarded(),
		})
	})

	ctrl := signal.NewSignalWSController(orch, cfg)
	authed.GET("/ws/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("id", c.GetString("identity")).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	return r
}

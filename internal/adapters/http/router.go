package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tmakar/coscribe/internal/adapters/ws"
	"github.com/tmakar/coscribe/internal/config"
	"github.com/tmakar/coscribe/internal/core"
	"github.com/tmakar/coscribe/internal/domain"
)

// SetupRouter wires the collaboration endpoint plus a small
// introspection API over the room registry. The note CRUD API lives in
// a separate service; nothing here touches persistent note state.
func SetupRouter(ctx context.Context, cfg *config.Config, ctl *ws.Controller, reg *core.Registry) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("coscribe", store))

	r.GET("/ws/collab", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Msg("ws collab endpoint hit")
		ctl.HandleCollab(ctx, c)
	})

	api := r.Group("/api")

	// GET /api/rooms — active rooms and member counts
	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": reg.Rooms()})
	})

	// GET /api/rooms/:id/members — presence of one room
	api.GET("/rooms/:id/members", func(c *gin.Context) {
		rid := domain.ResourceID(c.Param("id"))
		members, ok := reg.Snapshot(rid)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"resourceId": rid, "members": members})
	})

	return r
}

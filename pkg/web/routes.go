package web

import (
	"context"
	"net/http"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/sysinfo"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
)

// Bot is the part of the gateway client the API reports on.
type Bot interface {
	IsReady() bool
	GuildCount() int
	Latency() time.Duration
	Uptime() time.Duration
	UserID() string
}

// Storage is a persistence backend that can be pinged.
type Storage interface {
	Ping(ctx context.Context) (time.Duration, error)
}

// GrantLister lists the active temporary role grants.
type GrantLister interface {
	Active(ctx context.Context) ([]*models.TemporaryRole, error)
}

// API holds the dependencies of the routes. Nil fields report as offline.
type API struct {
	Bot     Bot
	Storage Storage
	Grants  GrantLister
	Stats   func() sysinfo.Snapshot
}

// SetupAPIRoutes mounts /api and /metrics.
func SetupAPIRoutes(s *Server, a *API) {
	if a.Stats == nil {
		a.Stats = sysinfo.Collect
	}

	api := s.engine.Group("/api")
	{
		api.GET("/status", a.statusHandler)
		api.GET("/health", a.healthHandler)
		api.GET("/bot", a.botInfoHandler)
		api.GET("/temproles", a.tempRolesHandler)
	}
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (a *API) statusHandler(c *gin.Context) {
	dbStatus, dbOnline, dbPing := "🔴 | Desconectado", false, time.Duration(0)
	if a.Storage != nil {
		if d, err := a.Storage.Ping(c.Request.Context()); err == nil {
			dbStatus, dbOnline, dbPing = "🟢 | En linea", true, d
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": config.Version,
		"database": gin.H{
			"status":   dbStatus,
			"isOnline": dbOnline,
			"pingMs":   dbPing.Milliseconds(),
		},
		"bot": gin.H{
			"isOnline": a.Bot != nil && a.Bot.IsReady(),
		},
		"system": a.Stats(),
	})
}

func (a *API) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "PancyMod Go is running",
	})
}

func (a *API) botInfoHandler(c *gin.Context) {
	if a.Bot == nil || !a.Bot.IsReady() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Bot Offline",
			"message": "El bot no está disponible en este momento.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":        a.Bot.UserID(),
		"guilds":    a.Bot.GuildCount(),
		"latencyMs": a.Bot.Latency().Milliseconds(),
		"uptime":    a.Bot.Uptime().Round(time.Second).String(),
		"isReady":   true,
	})
}

// tempRolesHandler lists active grants, optionally for one guild (?guildId=).
func (a *API) tempRolesHandler(c *gin.Context) {
	if a.Grants == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporary roles unavailable"})
		return
	}

	grants, err := a.Grants.Active(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Storage Error",
			"message": "No se pudieron leer los roles temporales.",
		})
		return
	}

	if guildID := c.Query("guildId"); guildID != "" {
		grants = lo.Filter(grants, func(g *models.TemporaryRole, _ int) bool { return g.GuildID == guildID })
	}
	if grants == nil {
		grants = []*models.TemporaryRole{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(grants), "grants": grants})
}

package healthcheckController

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type HealthCheckController struct {
	db      *sqlx.DB
	version string
	log     *slog.Logger
}

func New(db *sqlx.DB, version string, log *slog.Logger) *HealthCheckController {
	return &HealthCheckController{
		db:      db,
		version: version,
		log:     log,
	}
}

func (c *HealthCheckController) RegisterRoutes(r *gin.Engine) {
	r.GET("/", c.root)
	r.GET("/health", c.health)
	r.GET("/ready", c.ready)
}

// root liveness-ответ для mini app и балансировщика
func (c *HealthCheckController) root(ctx *gin.Context) {
	ctx.JSON(200, gin.H{
		"status":  "ok",
		"service": "store-bot",
		"version": c.version,
	})
}

// health базовая проверка (всегда возвращает 200)
func (c *HealthCheckController) health(ctx *gin.Context) {
	ctx.JSON(200, gin.H{
		"status": "ok",
	})
}

// ready проверка готовности (проверяет подключение к БД)
func (c *HealthCheckController) ready(ctx *gin.Context) {
	if err := c.db.Ping(); err != nil {
		c.log.Error("Database not ready", "error", err)
		ctx.JSON(503, gin.H{
			"status": "not ready",
			"error":  "database unavailable",
		})
		return
	}

	ctx.JSON(200, gin.H{
		"status": "ready",
	})
}

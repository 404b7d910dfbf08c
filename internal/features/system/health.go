package system

import (
	"time"

	"crm-gateway/internal/config"
	"crm-gateway/internal/database"

	"github.com/gofiber/fiber/v2"
)

type HealthController struct {
	Config  *config.Config
	DB      *database.MongodbDB
	Hub     *Hub
	started time.Time
}

func NewHealthController(cfg *config.Config, db *database.MongodbDB, hub *Hub) *HealthController {
	return &HealthController{
		Config:  cfg,
		DB:      db,
		Hub:     hub,
		started: time.Now(),
	}
}

// Health godoc
// @Summary      Service health
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *HealthController) Health(c *fiber.Ctx) error {
	store := config.StoreDriverMemory
	if h.DB.Enabled() {
		store = config.StoreDriverMongo
	}
	return c.JSON(fiber.Map{
		"status":      "ok",
		"appId":       h.Config.AppId,
		"environment": h.Config.Environment,
		"store":       store,
		"wsClients":   h.Hub.Count(),
		"uptime":      time.Since(h.started).Round(time.Second).String(),
	})
}

type HealthApi struct {
	Controller *HealthController
}

func NewHealthApi(controller *HealthController) *HealthApi {
	return &HealthApi{Controller: controller}
}

func (h *HealthApi) Setup(app *fiber.App) {
	app.Get("/health", h.Controller.Health)
}

package sync

import (
	"github.com/gofiber/fiber/v2"
)

type SyncApi struct {
	controller *SyncController
}

func NewSyncApi(controller *SyncController) *SyncApi {
	return &SyncApi{
		controller: controller,
	}
}

func (h *SyncApi) Setup(app *fiber.App) {
	accounts := app.Group("/api/crm/accounts/:id")

	accounts.Post("/sync", h.controller.SyncAccount)
	accounts.Get("/sync/status", h.controller.GetStatus)
	accounts.Delete("/sync/status", h.controller.ClearStatus)
	accounts.Post("/leads/:leadId/sync", h.controller.SyncLead)
}

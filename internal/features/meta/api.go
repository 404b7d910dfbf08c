package meta

import (
	"github.com/gofiber/fiber/v2"
)

type MetaApi struct {
	controller *MetaController
}

func NewMetaApi(controller *MetaController) *MetaApi {
	return &MetaApi{
		controller: controller,
	}
}

func (h *MetaApi) Setup(app *fiber.App) {
	app.Get("/api/webhooks/meta", h.controller.VerifyWebhook)
	app.Post("/api/webhooks/meta", h.controller.ReceiveWebhook)
	app.Get("/api/meta/leads", h.controller.ListLeads)
}

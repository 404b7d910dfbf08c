package whatsapp

import (
	"github.com/gofiber/fiber/v2"
)

type WhatsAppApi struct {
	controller *WhatsAppController
}

func NewWhatsAppApi(controller *WhatsAppController) *WhatsAppApi {
	return &WhatsAppApi{
		controller: controller,
	}
}

func (h *WhatsAppApi) Setup(app *fiber.App) {
	hooks := app.Group("/api/webhooks/whatsapp")
	hooks.Get("/", h.controller.VerifyWebhook)
	hooks.Post("/", h.controller.ReceiveCloudWebhook)
	hooks.Post("/unofficial", h.controller.ReceiveSessionWebhook)

	app.Get("/api/whatsapp/messages", h.controller.ListMessages)
}

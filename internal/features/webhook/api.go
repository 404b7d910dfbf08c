package webhook

import (
	"crm-gateway/internal/connectors/pipedrive"

	"github.com/gofiber/fiber/v2"
)

type WebhookApi struct {
	controller *WebhookController
}

func NewWebhookApi(controller *WebhookController) *WebhookApi {
	return &WebhookApi{
		controller: controller,
	}
}

func (h *WebhookApi) Setup(app *fiber.App) {
	app.Post("/api/webhooks/crm", h.controller.ReceiveCrmWebhook)
	app.Post(pipedrive.WebhookPath, h.controller.ReceiveCrmWebhook)

	logs := app.Group("/api/webhooks/logs")
	logs.Get("/", h.controller.ListLogs)
	logs.Delete("/", h.controller.ClearLogs)
	logs.Get("/:id", h.controller.GetLog)
}

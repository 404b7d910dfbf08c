package webhook

import (
	"encoding/json"

	"crm-gateway/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

var signatureHeaders = []string{"X-Pipedrive-Signature", "X-Webhook-Signature", "X-Hub-Signature-256"}

type WebhookController struct {
	Service WebhookService
}

func NewWebhookController(service WebhookService) *WebhookController {
	return &WebhookController{
		Service: service,
	}
}

// ReceiveCrmWebhook godoc
// @Summary Receive a CRM webhook
// @Description Parses the payload with the account's adapter and re-syncs the referenced lead
// @Tags webhooks
// @Accept json
// @Produce json
// @Param accountId query string true "CRM account ID"
// @Success 200 {object} WebhookResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/webhooks/crm [post]
func (ctrl *WebhookController) ReceiveCrmWebhook(c *fiber.Ctx) error {
	accountID := c.Query("accountId")
	if accountID == "" {
		return api.BadRequest(c, "accountId query parameter is required")
	}

	// a missing header fails verification whenever the account has a secret
	body := c.Body()
	if !ctrl.Service.VerifySignature(accountID, signatureOf(c), body) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid webhook signature",
		})
	}

	payload := map[string]any{}
	if len(body) > 0 {
		// malformed bodies still produce a logged, unparsed event
		_ = json.Unmarshal(body, &payload)
	}

	event := ctrl.Service.HandleWebhook(c.UserContext(), accountID, payload)
	return c.JSON(event.Response())
}

// ListLogs godoc
// @Summary List recent CRM webhook events
// @Tags webhooks
// @Produce json
// @Param limit query int false "Maximum events"
// @Success 200 {object} map[string]interface{}
// @Router /api/webhooks/logs [get]
func (ctrl *WebhookController) ListLogs(c *fiber.Ctx) error {
	events := ctrl.Service.GetWebhookLogs(c.UserContext(), c.QueryInt("limit", DefaultLogLimit))
	return c.JSON(fiber.Map{
		"data": events,
	})
}

// GetLog godoc
// @Summary Get a CRM webhook event
// @Tags webhooks
// @Router /api/webhooks/logs/{id} [get]
func (ctrl *WebhookController) GetLog(c *fiber.Ctx) error {
	event, ok := ctrl.Service.GetWebhookLog(c.UserContext(), c.Params("id"))
	if !ok {
		return api.NotFound(c, "Webhook event not found")
	}
	return c.JSON(fiber.Map{
		"data": event,
	})
}

// ClearLogs godoc
// @Summary Purge old CRM webhook events
// @Tags webhooks
// @Param hoursOld query int false "Age threshold in hours"
// @Router /api/webhooks/logs [delete]
func (ctrl *WebhookController) ClearLogs(c *fiber.Ctx) error {
	removed := ctrl.Service.ClearOldLogs(c.UserContext(), c.QueryInt("hoursOld", 24))
	return c.JSON(fiber.Map{
		"removed": removed,
	})
}

func signatureOf(c *fiber.Ctx) string {
	for _, header := range signatureHeaders {
		if v := c.Get(header); v != "" {
			return v
		}
	}
	return ""
}

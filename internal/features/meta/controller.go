package meta

import (
	"crm-gateway/pkg/hubsig"

	"github.com/gofiber/fiber/v2"
)

type MetaController struct {
	Service MetaService
}

func NewMetaController(service MetaService) *MetaController {
	return &MetaController{
		Service: service,
	}
}

// VerifyWebhook godoc
// @Summary Meta webhook subscription handshake
// @Tags meta
// @Produce plain
// @Param hub.mode query string true "subscribe"
// @Param hub.verify_token query string true "Verify token"
// @Param hub.challenge query string true "Challenge to echo"
// @Success 200 {string} string
// @Failure 403 {string} string
// @Router /api/webhooks/meta [get]
func (ctrl *MetaController) VerifyWebhook(c *fiber.Ctx) error {
	if !ctrl.Service.VerifySubscription(c.Query("hub.mode"), c.Query("hub.verify_token")) {
		return c.Status(fiber.StatusForbidden).SendString("forbidden")
	}
	return c.SendString(c.Query("hub.challenge"))
}

// ReceiveWebhook godoc
// @Summary Receive Meta lead-ads events
// @Tags meta
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/webhooks/meta [post]
func (ctrl *MetaController) ReceiveWebhook(c *fiber.Ctx) error {
	body := c.Body()
	if !ctrl.Service.VerifySignature(c.Get(hubsig.SignatureHeader), body) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid webhook signature",
		})
	}

	events, err := ctrl.Service.HandleWebhook(c.UserContext(), body)
	if err != nil {
		// Meta retries anything that is not a 200
		return c.JSON(fiber.Map{
			"received": 0,
			"error":    err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"received": len(events),
	})
}

// ListLeads godoc
// @Summary List received Meta lead events
// @Tags meta
// @Param limit query int false "Maximum events"
// @Router /api/meta/leads [get]
func (ctrl *MetaController) ListLeads(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"data": ctrl.Service.ListLeadEvents(c.UserContext(), c.QueryInt("limit", 50)),
	})
}

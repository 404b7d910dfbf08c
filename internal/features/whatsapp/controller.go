package whatsapp

import (
	"crm-gateway/internal/common/api"
	"crm-gateway/pkg/hubsig"
	"crm-gateway/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

type WhatsAppController struct {
	Service   WhatsAppService
	Validator *validation.Validator
}

func NewWhatsAppController(service WhatsAppService, validator *validation.Validator) *WhatsAppController {
	return &WhatsAppController{
		Service:   service,
		Validator: validator,
	}
}

// VerifyWebhook godoc
// @Summary WhatsApp Cloud API subscription handshake
// @Tags whatsapp
// @Router /api/webhooks/whatsapp [get]
func (ctrl *WhatsAppController) VerifyWebhook(c *fiber.Ctx) error {
	if !ctrl.Service.VerifySubscription(c.Query("hub.mode"), c.Query("hub.verify_token")) {
		return c.Status(fiber.StatusForbidden).SendString("forbidden")
	}
	return c.SendString(c.Query("hub.challenge"))
}

// ReceiveCloudWebhook godoc
// @Summary Receive WhatsApp Cloud API messages
// @Tags whatsapp
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/webhooks/whatsapp [post]
func (ctrl *WhatsAppController) ReceiveCloudWebhook(c *fiber.Ctx) error {
	body := c.Body()
	if !ctrl.Service.VerifySignature(c.Get(hubsig.SignatureHeader), body) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid webhook signature",
		})
	}

	result, err := ctrl.Service.HandleCloudWebhook(c.UserContext(), body)
	if err != nil {
		return api.Error(c, err, fiber.StatusBadRequest)
	}
	return c.JSON(result)
}

// ReceiveSessionWebhook godoc
// @Summary Receive messages from a session based WhatsApp API
// @Tags whatsapp
// @Accept json
// @Produce json
// @Router /api/webhooks/whatsapp/unofficial [post]
func (ctrl *WhatsAppController) ReceiveSessionWebhook(c *fiber.Ctx) error {
	message, err := ctrl.Service.HandleSessionWebhook(c.UserContext(), c.Body())
	if err != nil {
		return api.Error(c, err, fiber.StatusInternalServerError)
	}
	if message == nil {
		return c.JSON(fiber.Map{"stored": false})
	}
	return c.JSON(fiber.Map{
		"stored": true,
		"data":   message,
	})
}

// ListMessages godoc
// @Summary List received WhatsApp messages
// @Tags whatsapp
// @Param channel query string false "official or unofficial"
// @Param contact query string false "Phone number"
// @Param limit query int false "Maximum messages"
// @Router /api/whatsapp/messages [get]
func (ctrl *WhatsAppController) ListMessages(c *fiber.Ctx) error {
	var filter MessageFilter
	if err := c.QueryParser(&filter); err != nil {
		return api.BadRequest(c, "Invalid query")
	}
	if err := ctrl.Validator.ValidateStruct(filter); err != nil {
		return api.Error(c, err, fiber.StatusBadRequest)
	}

	return c.JSON(fiber.Map{
		"data": ctrl.Service.ListMessages(c.UserContext(), filter),
	})
}

package sync

import (
	"crm-gateway/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

type SyncController struct {
	Service SyncService
}

func NewSyncController(service SyncService) *SyncController {
	return &SyncController{
		Service: service,
	}
}

// SyncAccount godoc
// @Summary Sync all leads of an account
// @Tags sync
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/crm/accounts/{id}/sync [post]
func (ctrl *SyncController) SyncAccount(c *fiber.Ctx) error {
	status, err := ctrl.Service.SyncAccountLeads(c.UserContext(), c.Params("id"))
	if err != nil {
		return api.Error(c, err, fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{
		"message": "Sync completed",
		"data":    status,
	})
}

// SyncLead godoc
// @Summary Re-fetch one lead from the CRM
// @Tags sync
// @Produce json
// @Param id path string true "Account ID"
// @Param leadId path string true "Lead ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/crm/accounts/{id}/leads/{leadId}/sync [post]
func (ctrl *SyncController) SyncLead(c *fiber.Ctx) error {
	lead, err := ctrl.Service.SyncLead(c.UserContext(), c.Params("id"), c.Params("leadId"))
	if err != nil {
		return api.Error(c, err, fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{
		"data": lead,
	})
}

// GetStatus godoc
// @Summary Get sync status
// @Tags sync
// @Router /api/crm/accounts/{id}/sync/status [get]
func (ctrl *SyncController) GetStatus(c *fiber.Ctx) error {
	status, ok := ctrl.Service.GetSyncStatus(c.UserContext(), c.Params("id"))
	if !ok {
		return api.NotFound(c, "Account has never been synced")
	}

	return c.JSON(fiber.Map{
		"data": status,
	})
}

// ClearStatus godoc
// @Summary Clear sync status
// @Tags sync
// @Router /api/crm/accounts/{id}/sync/status [delete]
func (ctrl *SyncController) ClearStatus(c *fiber.Ctx) error {
	ctrl.Service.ClearSyncStatus(c.UserContext(), c.Params("id"))

	return c.JSON(fiber.Map{
		"message": "Sync status cleared",
	})
}

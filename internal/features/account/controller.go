package account

import (
	"crm-gateway/internal/common/api"
	"crm-gateway/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

type AccountController struct {
	Service   AccountService
	Validator *validation.Validator
}

func NewAccountController(service AccountService, validator *validation.Validator) *AccountController {
	return &AccountController{
		Service:   service,
		Validator: validator,
	}
}

// RegisterAccount godoc
// @Summary Register CRM account
// @Description Register a tenant's CRM credentials and bind an adapter
// @Tags accounts
// @Accept json
// @Produce json
// @Param account body RegisterAccountInput true "Account details"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/crm/accounts [post]
func (ctrl *AccountController) RegisterAccount(c *fiber.Ctx) error {
	var input RegisterAccountInput
	if err := c.BodyParser(&input); err != nil {
		return api.BadRequest(c, "Invalid request body")
	}
	if err := ctrl.Validator.ValidateStruct(input); err != nil {
		return api.Error(c, err, fiber.StatusBadRequest)
	}

	account, err := ctrl.Service.RegisterAccount(c.UserContext(), input)
	if err != nil {
		return api.Error(c, err, fiber.StatusBadRequest)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Account registered successfully",
		"data":    account.Masked(),
	})
}

// ListAccounts godoc
// @Summary List CRM accounts
// @Tags accounts
// @Produce json
// @Param active query bool false "Only active accounts"
// @Success 200 {object} map[string]interface{}
// @Router /api/crm/accounts [get]
func (ctrl *AccountController) ListAccounts(c *fiber.Ctx) error {
	var accounts []CrmAccount
	if c.QueryBool("active") {
		accounts = ctrl.Service.GetActiveAccounts(c.UserContext())
	} else {
		accounts = ctrl.Service.GetAllAccounts(c.UserContext())
	}

	masked := make([]CrmAccount, 0, len(accounts))
	for _, account := range accounts {
		masked = append(masked, account.Masked())
	}

	return c.JSON(fiber.Map{
		"data": masked,
	})
}

// GetAccount godoc
// @Summary Get CRM account
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/crm/accounts/{id} [get]
func (ctrl *AccountController) GetAccount(c *fiber.Ctx) error {
	account, ok := ctrl.Service.GetAccount(c.UserContext(), c.Params("id"))
	if !ok {
		return api.NotFound(c, "Account not found")
	}

	return c.JSON(fiber.Map{
		"data": account.Masked(),
	})
}

// UpdateAccount godoc
// @Summary Update CRM account
// @Description Merge fields into an account; credential or domain changes rebind the adapter
// @Tags accounts
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param updates body UpdateAccountInput true "Account updates"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/crm/accounts/{id} [put]
func (ctrl *AccountController) UpdateAccount(c *fiber.Ctx) error {
	var input UpdateAccountInput
	if err := c.BodyParser(&input); err != nil {
		return api.BadRequest(c, "Invalid request body")
	}
	if err := ctrl.Validator.ValidateStruct(input); err != nil {
		return api.Error(c, err, fiber.StatusBadRequest)
	}

	account, err := ctrl.Service.UpdateAccount(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return api.Error(c, err, fiber.StatusBadRequest)
	}

	return c.JSON(fiber.Map{
		"message": "Account updated successfully",
		"data":    account.Masked(),
	})
}

// DeleteAccount godoc
// @Summary Delete CRM account
// @Tags accounts
// @Param id path string true "Account ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/crm/accounts/{id} [delete]
func (ctrl *AccountController) DeleteAccount(c *fiber.Ctx) error {
	deleted := ctrl.Service.DeleteAccount(c.UserContext(), c.Params("id"))

	return c.JSON(fiber.Map{
		"message": "Account deleted successfully",
		"deleted": deleted,
	})
}

// ActivateAccount godoc
// @Summary Activate CRM account
// @Tags accounts
// @Param id path string true "Account ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/crm/accounts/{id}/activate [post]
func (ctrl *AccountController) ActivateAccount(c *fiber.Ctx) error {
	updated := ctrl.Service.ActivateAccount(c.UserContext(), c.Params("id"))

	return c.JSON(fiber.Map{
		"message": "Account activated",
		"updated": updated,
	})
}

// DeactivateAccount godoc
// @Summary Deactivate CRM account
// @Tags accounts
// @Param id path string true "Account ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/crm/accounts/{id}/deactivate [post]
func (ctrl *AccountController) DeactivateAccount(c *fiber.Ctx) error {
	updated := ctrl.Service.DeactivateAccount(c.UserContext(), c.Params("id"))

	return c.JSON(fiber.Map{
		"message": "Account deactivated",
		"updated": updated,
	})
}

// TestConnection godoc
// @Summary Test CRM connection
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/crm/accounts/{id}/test [get]
func (ctrl *AccountController) TestConnection(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, ok := ctrl.Service.GetAdapter(id); !ok {
		return api.NotFound(c, "Account not found")
	}

	return c.JSON(fiber.Map{
		"connected": ctrl.Service.TestConnection(c.UserContext(), id),
	})
}

package account

import (
	"github.com/gofiber/fiber/v2"
)

type AccountApi struct {
	controller *AccountController
}

func NewAccountApi(controller *AccountController) *AccountApi {
	return &AccountApi{
		controller: controller,
	}
}

func (h *AccountApi) Setup(app *fiber.App) {
	accounts := app.Group("/api/crm/accounts")

	accounts.Post("/", h.controller.RegisterAccount)
	accounts.Get("/", h.controller.ListAccounts)
	accounts.Get("/:id", h.controller.GetAccount)
	accounts.Put("/:id", h.controller.UpdateAccount)
	accounts.Delete("/:id", h.controller.DeleteAccount)
	accounts.Post("/:id/activate", h.controller.ActivateAccount)
	accounts.Post("/:id/deactivate", h.controller.DeactivateAccount)
	accounts.Get("/:id/test", h.controller.TestConnection)
}

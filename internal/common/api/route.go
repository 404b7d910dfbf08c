package api

import "github.com/gofiber/fiber/v2"

// Route is implemented by every feature api. main collects them through the
// fx "routes" group and calls Setup once on startup.
type Route interface {
	Setup(app *fiber.App)
}

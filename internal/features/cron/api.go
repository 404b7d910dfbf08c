package cron_feature

import (
	"github.com/gofiber/fiber/v2"
)

type SchedulerApi struct {
	controller *SchedulerController
}

func NewSchedulerApi(controller *SchedulerController) *SchedulerApi {
	return &SchedulerApi{
		controller: controller,
	}
}

func (h *SchedulerApi) Setup(app *fiber.App) {
	jobs := app.Group("/api/scheduler/jobs")

	jobs.Get("/", h.controller.ListJobs)
	jobs.Post("/:name/run", h.controller.RunJob)
	jobs.Get("/:name/runs", h.controller.GetRuns)
}

package cron_feature

import (
	"crm-gateway/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

type SchedulerController struct {
	Service SchedulerService
}

func NewSchedulerController(service SchedulerService) *SchedulerController {
	return &SchedulerController{
		Service: service,
	}
}

// ListJobs godoc
// @Summary List scheduled jobs
// @Tags scheduler
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/scheduler/jobs [get]
func (c *SchedulerController) ListJobs(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"data": c.Service.ListJobs(),
	})
}

// RunJob godoc
// @Summary Run a scheduled job now
// @Tags scheduler
// @Produce json
// @Param name path string true "Job name"
// @Success 200 {object} JobRun
// @Failure 404 {object} map[string]interface{}
// @Router /api/scheduler/jobs/{name}/run [post]
func (c *SchedulerController) RunJob(ctx *fiber.Ctx) error {
	run, err := c.Service.Trigger(ctx.UserContext(), JobName(ctx.Params("name")))
	if err != nil {
		return api.Error(ctx, err, fiber.StatusInternalServerError)
	}
	return ctx.JSON(fiber.Map{
		"data": run,
	})
}

// GetRuns godoc
// @Summary List recent runs of a job
// @Tags scheduler
// @Param name path string true "Job name"
// @Param limit query int false "Maximum runs"
// @Router /api/scheduler/jobs/{name}/runs [get]
func (c *SchedulerController) GetRuns(ctx *fiber.Ctx) error {
	runs, err := c.Service.GetRuns(ctx.UserContext(), JobName(ctx.Params("name")), ctx.QueryInt("limit", 50))
	if err != nil {
		return api.Error(ctx, err, fiber.StatusInternalServerError)
	}
	return ctx.JSON(fiber.Map{
		"data": runs,
	})
}

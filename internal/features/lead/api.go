package lead

import (
	"github.com/gofiber/fiber/v2"
)

type LeadApi struct {
	controller *LeadController
}

func NewLeadApi(controller *LeadController) *LeadApi {
	return &LeadApi{
		controller: controller,
	}
}

func (h *LeadApi) Setup(app *fiber.App) {
	account := app.Group("/api/crm/accounts/:id")

	leads := account.Group("/leads")
	leads.Get("/", h.controller.ListLeads)
	leads.Get("/export", h.controller.ExportLeads)
	leads.Post("/import", h.controller.ImportLeads)
	leads.Post("/", h.controller.CreateLead)
	leads.Get("/:leadId", h.controller.GetLead)
	leads.Put("/:leadId", h.controller.UpdateLead)
	leads.Patch("/:leadId/stage", h.controller.MoveLead)
	leads.Delete("/:leadId", h.controller.DeleteLead)

	pipelines := account.Group("/pipelines")
	pipelines.Get("/", h.controller.ListPipelines)
	pipelines.Get("/:pipelineId", h.controller.GetPipeline)
	pipelines.Get("/:pipelineId/stages", h.controller.ListStages)

	account.Get("/fields", h.controller.ListFields)
}

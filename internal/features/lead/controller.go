package lead

import (
	"fmt"

	"crm-gateway/internal/common/api"
	"crm-gateway/internal/common/models"
	"crm-gateway/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

type LeadController struct {
	Service   LeadService
	Validator *validation.Validator
}

func NewLeadController(service LeadService, validator *validation.Validator) *LeadController {
	return &LeadController{
		Service:   service,
		Validator: validator,
	}
}

func (ctrl *LeadController) parseFilter(c *fiber.Ctx) (*models.LeadFilter, error) {
	var filter models.LeadFilter
	if err := c.QueryParser(&filter); err != nil {
		return nil, err
	}
	if err := ctrl.Validator.ValidateStruct(filter); err != nil {
		return nil, err
	}
	return &filter, nil
}

// ListLeads godoc
// @Summary List leads
// @Tags leads
// @Produce json
// @Param id path string true "Account ID"
// @Param pipelineId query string false "Pipeline"
// @Param stageId query string false "Stage"
// @Param search query string false "Search term"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/crm/accounts/{id}/leads [get]
func (ctrl *LeadController) ListLeads(c *fiber.Ctx) error {
	filter, err := ctrl.parseFilter(c)
	if err != nil {
		return api.Error(c, err, fiber.StatusBadRequest)
	}

	leads, err := ctrl.Service.ListLeads(c.UserContext(), c.Params("id"), filter)
	if err != nil {
		return api.Error(c, err, fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{
		"data":  leads,
		"total": len(leads),
	})
}

// ExportLeads godoc
// @Summary Export leads to Excel
// @Tags leads
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Account ID"
// @Success 200 {file} file
// @Router /api/crm/accounts/{id}/leads/export [get]
func (ctrl *LeadController) ExportLeads(c *fiber.Ctx) error {
	filter, err := ctrl.parseFilter(c)
	if err != nil {
		return api.Error(c, err, fiber.StatusBadRequest)
	}

	data, filename, err := ctrl.Service.ExportLeads(c.UserContext(), c.Params("id"), filter)
	if err != nil {
		return api.Error(c, err, fiber.StatusInternalServerError)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	return c.Send(data)
}

// ImportLeads godoc
// @Summary Import leads from Excel
// @Tags leads
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Account ID"
// @Param file formData file true "xlsx file"
// @Param pipelineId formData string false "Default pipeline"
// @Param stageId formData string false "Default stage"
// @Success 200 {object} ImportResult
// @Router /api/crm/accounts/{id}/leads/import [post]
func (ctrl *LeadController) ImportLeads(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return api.BadRequest(c, "file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to open file"})
	}
	defer file.Close()

	defaults := ImportDefaults{
		PipelineID: c.FormValue("pipelineId"),
		StageID:    c.FormValue("stageId"),
	}

	result, err := ctrl.Service.ImportLeads(c.UserContext(), c.Params("id"), file, defaults)
	if err != nil {
		return api.Error(c, err, fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{
		"data": result,
	})
}

// GetLead godoc
// @Summary Get lead
// @Tags leads
// @Param id path string true "Account ID"
// @Param leadId path string true "Lead ID"
// @Router /api/crm/accounts/{id}/leads/{leadId} [get]
func (ctrl *LeadController) GetLead(c *fiber.Ctx) error {
	lead, err := ctrl.Service.GetLead(c.UserContext(), c.Params("id"), c.Params("leadId"))
	if err != nil {
		return api.Error(c, err, fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{
		"data": lead,
	})
}

// CreateLead godoc
// @Summary Create lead
// @Tags leads
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param lead body models.CreateLeadInput true "Lead"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/crm/accounts/{id}/leads [post]
func (ctrl *LeadController) CreateLead(c *fiber.Ctx) error {
	var input models.CreateLeadInput
	if err := c.BodyParser(&input); err != nil {
		return api.BadRequest(c, "Invalid request body")
	}
	if err := ctrl.Validator.ValidateStruct(input); err != nil {
		return api.Error(c, err, fiber.StatusBadRequest)
	}

	lead, err := ctrl.Service.CreateLead(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return api.Error(c, err, fiber.StatusBadRequest)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Lead created successfully",
		"data":    lead,
	})
}

// UpdateLead godoc
// @Summary Update lead
// @Tags leads
// @Accept json
// @Param id path string true "Account ID"
// @Param leadId path string true "Lead ID"
// @Param lead body models.UpdateLeadInput true "Changes"
// @Router /api/crm/accounts/{id}/leads/{leadId} [put]
func (ctrl *LeadController) UpdateLead(c *fiber.Ctx) error {
	var input models.UpdateLeadInput
	if err := c.BodyParser(&input); err != nil {
		return api.BadRequest(c, "Invalid request body")
	}
	if err := ctrl.Validator.ValidateStruct(input); err != nil {
		return api.Error(c, err, fiber.StatusBadRequest)
	}

	lead, err := ctrl.Service.UpdateLead(c.UserContext(), c.Params("id"), c.Params("leadId"), input)
	if err != nil {
		return api.Error(c, err, fiber.StatusBadRequest)
	}

	return c.JSON(fiber.Map{
		"message": "Lead updated successfully",
		"data":    lead,
	})
}

// MoveLead godoc
// @Summary Move lead to another stage
// @Tags leads
// @Accept json
// @Param id path string true "Account ID"
// @Param leadId path string true "Lead ID"
// @Param stage body models.MoveLeadInput true "Target stage"
// @Router /api/crm/accounts/{id}/leads/{leadId}/stage [patch]
func (ctrl *LeadController) MoveLead(c *fiber.Ctx) error {
	var input models.MoveLeadInput
	if err := c.BodyParser(&input); err != nil {
		return api.BadRequest(c, "Invalid request body")
	}
	if err := ctrl.Validator.ValidateStruct(input); err != nil {
		return api.Error(c, err, fiber.StatusBadRequest)
	}

	lead, err := ctrl.Service.MoveLead(c.UserContext(), c.Params("id"), c.Params("leadId"), input)
	if err != nil {
		return api.Error(c, err, fiber.StatusBadRequest)
	}

	return c.JSON(fiber.Map{
		"data": lead,
	})
}

// DeleteLead godoc
// @Summary Delete lead
// @Tags leads
// @Router /api/crm/accounts/{id}/leads/{leadId} [delete]
func (ctrl *LeadController) DeleteLead(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteLead(c.UserContext(), c.Params("id"), c.Params("leadId")); err != nil {
		return api.Error(c, err, fiber.StatusBadRequest)
	}

	return c.JSON(fiber.Map{
		"message": "Lead deleted successfully",
	})
}

// ListPipelines godoc
// @Summary List pipelines with their stages
// @Tags pipelines
// @Router /api/crm/accounts/{id}/pipelines [get]
func (ctrl *LeadController) ListPipelines(c *fiber.Ctx) error {
	pipelines, err := ctrl.Service.ListPipelines(c.UserContext(), c.Params("id"))
	if err != nil {
		return api.Error(c, err, fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{
		"data": pipelines,
	})
}

// GetPipeline godoc
// @Summary Get pipeline
// @Tags pipelines
// @Router /api/crm/accounts/{id}/pipelines/{pipelineId} [get]
func (ctrl *LeadController) GetPipeline(c *fiber.Ctx) error {
	pipeline, err := ctrl.Service.GetPipeline(c.UserContext(), c.Params("id"), c.Params("pipelineId"))
	if err != nil {
		return api.Error(c, err, fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{
		"data": pipeline,
	})
}

func (ctrl *LeadController) ListStages(c *fiber.Ctx) error {
	stages, err := ctrl.Service.ListStages(c.UserContext(), c.Params("id"), c.Params("pipelineId"))
	if err != nil {
		return api.Error(c, err, fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{
		"data": stages,
	})
}

// ListFields godoc
// @Summary List field definitions
// @Tags fields
// @Param id path string true "Account ID"
// @Param objectType query string false "lead or contact"
// @Router /api/crm/accounts/{id}/fields [get]
func (ctrl *LeadController) ListFields(c *fiber.Ctx) error {
	var query FieldsQuery
	if err := c.QueryParser(&query); err != nil {
		return api.BadRequest(c, "Invalid query")
	}
	if err := ctrl.Validator.ValidateStruct(query); err != nil {
		return api.Error(c, err, fiber.StatusBadRequest)
	}

	fields, err := ctrl.Service.ListFields(c.UserContext(), c.Params("id"), models.FieldObjectType(query.ObjectType))
	if err != nil {
		return api.Error(c, err, fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{
		"data": fields,
	})
}

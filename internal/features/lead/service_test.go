package lead

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"crm-gateway/internal/common/models"
	"crm-gateway/internal/testhelpers"
	"crm-gateway/pkg/apperror"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func newTestLeadService(t *testing.T) (*LeadServiceImpl, *testhelpers.MockAdapter) {
	t.Helper()
	adapter := testhelpers.NewMockAdapter()
	adapter.Leads["pipedrive_1"] = models.Lead{
		ID:           "pipedrive_1",
		ExternalID:   "1",
		Title:        "Website deal",
		Email:        "ana@example.com",
		PipelineID:   "1",
		StageID:      "3",
		StageName:    "Qualified",
		CustomFields: map[string]any{"budget": float64(1200)},
		CreatedAt:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	adapter.Pipelines = []models.Pipeline{{
		ID:     "1",
		Name:   "Sales",
		Stages: []models.Stage{{ID: "3", Name: "Qualified", PipelineID: "1", Order: 1}},
	}}
	adapter.Fields = []models.FieldDefinition{{ID: "1", Key: "title", Name: "Title", Type: models.FieldTypeText}}

	registry := testhelpers.NewAdapterRegistry()
	registry.Add("acc-1", adapter)
	return NewLeadService(registry, zap.NewNop()).(*LeadServiceImpl), adapter
}

func TestLeadServiceUnknownAccount(t *testing.T) {
	s, _ := newTestLeadService(t)
	ctx := context.Background()

	calls := map[string]func() error{
		"list": func() error { _, err := s.ListLeads(ctx, "ghost", nil); return err },
		"get":  func() error { _, err := s.GetLead(ctx, "ghost", "pipedrive_1"); return err },
		"create": func() error {
			_, err := s.CreateLead(ctx, "ghost", models.CreateLeadInput{Title: "x", PipelineID: "1", StageID: "3"})
			return err
		},
		"delete":    func() error { return s.DeleteLead(ctx, "ghost", "pipedrive_1") },
		"pipelines": func() error { _, err := s.ListPipelines(ctx, "ghost"); return err },
		"fields":    func() error { _, err := s.ListFields(ctx, "ghost", models.FieldObjectLead); return err },
		"export":    func() error { _, _, err := s.ExportLeads(ctx, "ghost", nil); return err },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			if err := call(); !errors.Is(err, apperror.ErrNotFound) {
				t.Errorf("expected not found, got %v", err)
			}
		})
	}
}

func TestLeadServiceDelegates(t *testing.T) {
	s, adapter := newTestLeadService(t)
	ctx := context.Background()

	lead, err := s.CreateLead(ctx, "acc-1", models.CreateLeadInput{Title: "New", PipelineID: "1", StageID: "3"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	moved, err := s.MoveLead(ctx, "acc-1", lead.ID, models.MoveLeadInput{StageID: "4"})
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if moved.StageID != "4" {
		t.Errorf("expected stage 4, got %s", moved.StageID)
	}

	adapter.MutationErr = apperror.New(apperror.KindBackend, "Failed to delete lead")
	if err := s.DeleteLead(ctx, "acc-1", lead.ID); !errors.Is(err, apperror.ErrBackend) {
		t.Errorf("expected backend error, got %v", err)
	}

	stages, err := s.ListStages(ctx, "acc-1", "1")
	if err != nil || len(stages) != 1 {
		t.Errorf("expected one stage, got %v (%v)", stages, err)
	}
	if _, err := s.GetPipeline(ctx, "acc-1", "9"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected pipeline not found, got %v", err)
	}
}

func TestExportLeads(t *testing.T) {
	s, _ := newTestLeadService(t)

	data, filename, err := s.ExportLeads(context.Background(), "acc-1", nil)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if filename != "leads_acc-1.xlsx" {
		t.Errorf("unexpected filename %s", filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("invalid workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}

	header := rows[0]
	if header[2] != "Title" || header[len(header)-1] != "budget" {
		t.Errorf("unexpected header %v", header)
	}
	row := rows[1]
	if row[0] != "pipedrive_1" || row[2] != "Website deal" || row[8] != "Qualified" {
		t.Errorf("unexpected row %v", row)
	}
	if row[10] != "2024-01-02 03:04:05" {
		t.Errorf("unexpected created at %q", row[10])
	}
	if row[len(row)-1] != "1200" {
		t.Errorf("expected custom field value, got %q", row[len(row)-1])
	}
}

func buildWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf
}

func TestImportLeads(t *testing.T) {
	s, adapter := newTestLeadService(t)

	workbook := buildWorkbook(t, [][]any{
		{"Title", "Email", "Company", "Stage ID", "budget"},
		{"Imported one", "one@example.com", "Acme", "", "500"},
		{"", "nobody@example.com", "", "", ""},
		{"Imported two", "", "", "7", ""},
	})

	result, err := s.ImportLeads(context.Background(), "acc-1", workbook, ImportDefaults{PipelineID: "1", StageID: "3"})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.Total != 3 || result.Created != 2 || result.Failed != 1 {
		t.Errorf("unexpected result %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].Row != 3 {
		t.Errorf("expected row 3 to fail, got %+v", result.Errors)
	}

	one := adapter.Leads["mock_Imported one"]
	if one.StageID != "3" || one.CompanyName != "Acme" || one.CustomFields["budget"] != "500" {
		t.Errorf("unexpected first lead %+v", one)
	}
	if two := adapter.Leads["mock_Imported two"]; two.StageID != "7" {
		t.Errorf("row stage should override default, got %s", two.StageID)
	}
}

func TestImportLeadsRejectsGarbage(t *testing.T) {
	s, _ := newTestLeadService(t)

	_, err := s.ImportLeads(context.Background(), "acc-1", bytes.NewBufferString("not a workbook"), ImportDefaults{})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

package lead

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"crm-gateway/internal/common/models"
	"crm-gateway/pkg/apperror"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const sheetName = "Leads"

var exportColumns = []string{
	"ID", "External ID", "Title", "Email", "Phone", "Company",
	"Pipeline ID", "Stage ID", "Stage", "Source", "Created At", "Updated At",
}

// ExportLeads renders the account's leads as an xlsx workbook. Custom fields
// become extra columns sorted by key.
func (s *LeadServiceImpl) ExportLeads(ctx context.Context, accountID string, filter *models.LeadFilter) ([]byte, string, error) {
	leads, err := s.ListLeads(ctx, accountID, filter)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, "", err
	}

	customKeys := collectCustomKeys(leads)
	columns := append(append([]string{}, exportColumns...), customKeys...)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, lead := range leads {
		row := []any{
			lead.ID, lead.ExternalID, lead.Title, lead.Email, lead.Phone, lead.CompanyName,
			lead.PipelineID, lead.StageID, lead.StageName, string(lead.Source),
			formatTime(lead.CreatedAt), formatTime(lead.UpdatedAt),
		}
		for _, key := range customKeys {
			row = append(row, cellValue(lead.CustomFields[key]))
		}

		cell, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, "", err
		}
	}

	for i := range columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 18)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	s.Logger.Info("Leads exported",
		zap.String("account_id", accountID),
		zap.Int("rows", len(leads)),
	)
	return buffer.Bytes(), fmt.Sprintf("leads_%s.xlsx", accountID), nil
}

// ImportLeads creates one lead per row of the first sheet. Headers match the
// export columns; unknown headers are sent as custom fields.
func (s *LeadServiceImpl) ImportLeads(ctx context.Context, accountID string, file io.Reader, defaults ImportDefaults) (*ImportResult, error) {
	adapter, err := s.adapter(accountID)
	if err != nil {
		return nil, err
	}

	rows, err := readRows(file)
	if err != nil {
		return nil, err
	}

	headers := rows[0]
	result := &ImportResult{Errors: []ImportRowError{}}

	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		result.Total++
		rowNumber := i + 2

		input := rowToInput(headers, row, defaults)
		if input.Title == "" || input.PipelineID == "" || input.StageID == "" {
			result.Failed++
			result.Errors = append(result.Errors, ImportRowError{Row: rowNumber, Error: "title, pipeline and stage are required"})
			continue
		}

		if _, err := adapter.CreateLead(ctx, accountID, input); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ImportRowError{Row: rowNumber, Error: err.Error()})
			continue
		}
		result.Created++
	}

	s.Logger.Info("Leads imported",
		zap.String("account_id", accountID),
		zap.Int("created", result.Created),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func readRows(file io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "failed to open Excel file", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperror.New(apperror.KindValidation, "no sheets found in Excel file")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "failed to read Excel rows", err)
	}
	if len(rows) == 0 {
		return nil, apperror.New(apperror.KindValidation, "Excel file is empty")
	}
	return rows, nil
}

func rowToInput(headers, row []string, defaults ImportDefaults) models.CreateLeadInput {
	input := models.CreateLeadInput{
		PipelineID: defaults.PipelineID,
		StageID:    defaults.StageID,
		Source:     models.LeadSourceManual,
	}

	for j, header := range headers {
		if j >= len(row) {
			break
		}
		value := strings.TrimSpace(row[j])
		if value == "" {
			continue
		}

		switch normalizeHeader(header) {
		case "title":
			input.Title = value
		case "email":
			input.Email = value
		case "phone":
			input.Phone = value
		case "company", "companyname":
			input.CompanyName = value
		case "pipelineid":
			input.PipelineID = value
		case "stageid":
			input.StageID = value
		case "sourceid":
			input.SourceID = value
		case "id", "externalid", "stage", "source", "createdat", "updatedat":
			// read-only columns of an export
		default:
			if input.CustomFields == nil {
				input.CustomFields = map[string]any{}
			}
			input.CustomFields[strings.TrimSpace(header)] = value
		}
	}
	return input
}

func normalizeHeader(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func collectCustomKeys(leads []models.Lead) []string {
	seen := map[string]bool{}
	keys := []string{}
	for _, lead := range leads {
		for key := range lead.CustomFields {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

func cellValue(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case string, bool, int, int64, float64:
		return val
	case map[string]any:
		if name, ok := val["name"]; ok {
			return fmt.Sprintf("%v", name)
		}
		if value, ok := val["value"]; ok {
			return fmt.Sprintf("%v", value)
		}
		return fmt.Sprintf("%v", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

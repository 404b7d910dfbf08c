package lead

// ImportRowError reports why one spreadsheet row was not created
type ImportRowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type ImportResult struct {
	Total   int              `json:"total"`
	Created int              `json:"created"`
	Failed  int              `json:"failed"`
	Errors  []ImportRowError `json:"errors"`
}

// ImportDefaults fill pipeline and stage for rows that leave them blank
type ImportDefaults struct {
	PipelineID string `json:"pipelineId" form:"pipelineId"`
	StageID    string `json:"stageId" form:"stageId"`
}

type FieldsQuery struct {
	ObjectType string `query:"objectType" validate:"omitempty,oneof=lead contact"`
}

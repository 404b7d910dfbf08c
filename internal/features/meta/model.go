package meta

import (
	"bytes"
	"encoding/json"
	"time"
)

// LeadEvent is one lead-ads submission announced by a page webhook
type LeadEvent struct {
	ID          string     `json:"id"`
	LeadgenID   string     `json:"leadgenId"`
	FormID      string     `json:"formId"`
	PageID      string     `json:"pageId"`
	AdID        string     `json:"adId,omitempty"`
	AdgroupID   string     `json:"adgroupId,omitempty"`
	CreatedTime *time.Time `json:"createdTime,omitempty"`
	ReceivedAt  time.Time  `json:"receivedAt"`
}

type webhookPayload struct {
	Object string  `json:"object"`
	Entry  []entry `json:"entry"`
}

type entry struct {
	ID      flexID   `json:"id"`
	Time    int64    `json:"time"`
	Changes []change `json:"changes"`
}

type change struct {
	Field string      `json:"field"`
	Value leadgenData `json:"value"`
}

type leadgenData struct {
	LeadgenID   flexID `json:"leadgen_id"`
	FormID      flexID `json:"form_id"`
	PageID      flexID `json:"page_id"`
	AdID        flexID `json:"ad_id"`
	AdgroupID   flexID `json:"adgroup_id"`
	CreatedTime int64  `json:"created_time"`
}

// flexID accepts ids sent either as JSON strings or numbers
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

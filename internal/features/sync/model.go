package sync

import (
	"time"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusError   Status = "error"
)

// SyncStatus is the latest sync snapshot of one account. It is overwritten
// on every attempt.
type SyncStatus struct {
	CrmAccountID string     `json:"crmAccountId" bson:"_id"`
	LastSyncAt   *time.Time `json:"lastSyncAt,omitempty" bson:"last_sync_at,omitempty"`
	LeadsCount   int        `json:"leadsCount" bson:"leads_count"`
	// FailedCount holds the lead count known before the last failed attempt
	FailedCount  int    `json:"failedCount" bson:"failed_count"`
	PendingCount int    `json:"pendingCount" bson:"pending_count"`
	Status       Status `json:"status" bson:"status"`
	Error        string `json:"error,omitempty" bson:"error,omitempty"`
}

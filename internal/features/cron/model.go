package cron_feature

import (
	"time"
)

type JobName string

const (
	JobAutoSync         JobName = "auto_sync"
	JobPurgeWebhookLogs JobName = "purge_webhook_logs"
)

const (
	RunStatusSuccess     = "success"
	RunStatusFailed      = "failed"
	RunStatusPartialFail = "partial_failure"
)

// ScheduledJob describes a built-in job and its schedule
type ScheduledJob struct {
	Name     JobName    `json:"name"`
	Schedule string     `json:"schedule"`
	Enabled  bool       `json:"enabled"`
	LastRun  *time.Time `json:"lastRun,omitempty"`
	NextRun  *time.Time `json:"nextRun,omitempty"`
}

// JobRun records a single execution of a job
type JobRun struct {
	ID        string     `json:"id" bson:"_id"`
	Job       JobName    `json:"job" bson:"job"`
	StartTime time.Time  `json:"startTime" bson:"start_time"`
	EndTime   *time.Time `json:"endTime,omitempty" bson:"end_time,omitempty"`
	Status    string     `json:"status" bson:"status"`
	Processed int        `json:"processed" bson:"processed"`
	Affected  int        `json:"affected" bson:"affected"`
	Errors    []string   `json:"errors,omitempty" bson:"errors,omitempty"`
}

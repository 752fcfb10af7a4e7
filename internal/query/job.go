package query

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is one queued async weather query, consumed by cmd/worker.
type Job struct {
	ID string `gorm:"primaryKey;size:26"` // ULID length

	UserID uint64 `gorm:"index;not null"`

	// Empty when the query should open a fresh session.
	SessionID string `gorm:"size:36;index"`

	Query string `gorm:"type:text;not null"`

	Status JobStatus `gorm:"type:varchar(16);index;not null"`

	// Filled when succeeded
	ResultSessionID *string `gorm:"size:36"`
	Answer          *string `gorm:"type:text"`

	// Filled when failed
	Error *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Job) TableName() string { return "weather_query_jobs" }

// Jobs is the persistence layer for async query jobs.
type Jobs struct {
	db *gorm.DB
}

func NewJobs(db *gorm.DB) *Jobs {
	return &Jobs{db: db}
}

func (j *Jobs) Create(ctx context.Context, job *Job) error {
	return j.db.WithContext(ctx).Create(job).Error
}

func (j *Jobs) Get(ctx context.Context, id string) (*Job, error) {
	var job Job
	if err := j.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (j *Jobs) MarkRunning(ctx context.Context, id string) error {
	return j.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status = ?", id, JobQueued).
		Update("status", JobRunning).Error
}

func (j *Jobs) MarkSucceeded(ctx context.Context, id, sessionID, answer string) error {
	return j.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":            JobSucceeded,
			"result_session_id": sessionID,
			"answer":            answer,
			"error":             nil,
		}).Error
}

func (j *Jobs) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return j.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status": JobFailed,
			"error":  errMsg,
		}).Error
}

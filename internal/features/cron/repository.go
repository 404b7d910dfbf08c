package cron_feature

import (
	"context"
	"sync"

	"crm-gateway/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const maxMemoryRuns = 200

type JobRunRepository interface {
	CreateLog(ctx context.Context, run *JobRun) error
	// GetLogs returns the newest runs of a job, newest first
	GetLogs(ctx context.Context, job JobName, limit int) ([]JobRun, error)
	EnsureIndexes(ctx context.Context) error
}

func NewJobRunRepository(db *database.MongodbDB) JobRunRepository {
	if db.Enabled() {
		return &JobRunRepositoryImpl{
			collection: db.Collection("cron_job_runs"),
		}
	}
	return NewJobRunMemoryRepository()
}

type JobRunRepositoryImpl struct {
	collection *mongo.Collection
}

func (r *JobRunRepositoryImpl) CreateLog(ctx context.Context, run *JobRun) error {
	_, err := r.collection.InsertOne(ctx, run)
	return err
}

func (r *JobRunRepositoryImpl) GetLogs(ctx context.Context, job JobName, limit int) ([]JobRun, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: -1}}).SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"job": job}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	runs := []JobRun{}
	if err = cursor.All(ctx, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *JobRunRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "job", Value: 1},
			{Key: "start_time", Value: -1},
		},
		Options: options.Index().SetName("idx_job_start_time"),
	})
	return err
}

// JobRunMemoryRepository keeps the latest runs of every job
type JobRunMemoryRepository struct {
	mu   sync.RWMutex
	runs []JobRun
}

func NewJobRunMemoryRepository() *JobRunMemoryRepository {
	return &JobRunMemoryRepository{}
}

func (r *JobRunMemoryRepository) CreateLog(ctx context.Context, run *JobRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs = append(r.runs, *run)
	if len(r.runs) > maxMemoryRuns {
		r.runs = append([]JobRun(nil), r.runs[len(r.runs)-maxMemoryRuns:]...)
	}
	return nil
}

func (r *JobRunMemoryRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

func (r *JobRunMemoryRepository) GetLogs(ctx context.Context, job JobName, limit int) ([]JobRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := []JobRun{}
	for i := len(r.runs) - 1; i >= 0 && len(runs) < limit; i-- {
		if r.runs[i].Job == job {
			runs = append(runs, r.runs[i])
		}
	}
	return runs, nil
}

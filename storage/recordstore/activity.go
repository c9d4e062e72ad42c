package recordstore

import (
	"context"

	"github.com/breakthefear/btf/core/activity"
)

type activityRepository struct {
	db *DB
}

var _ activity.Repository = (*activityRepository)(nil)

func NewActivityRepository(db *DB) activity.Repository {
	return &activityRepository{db: db}
}

// AddActivity stores the log newest first, keeping at most `limit` entries.
func (repo *activityRepository) AddActivity(ctx context.Context, act activity.Activity, limit int) (activity.Activity, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	rows := make([]activity.Activity, 0, len(repo.db.activities.rows)+1)
	rows = append(rows, act)
	rows = append(rows, repo.db.activities.rows...)
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return act, repo.db.activities.save(ctx, repo.db.store, rows)
}

func (repo *activityRepository) QueryRecentActivities(_ context.Context, limit int) ([]activity.Activity, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	acts := repo.db.activities.all(nil)
	if limit > 0 && len(acts) > limit {
		acts = acts[:limit]
	}
	return acts, nil
}

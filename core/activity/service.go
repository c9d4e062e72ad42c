package activity

import (
	"context"

	"github.com/breakthefear/btf/core"
)

type (
	Repository interface {
		// AddActivity prepends act to the log and trims it to `limit` entries.
		AddActivity(ctx context.Context, act Activity, limit int) (Activity, error)
		// QueryRecentActivities returns at most `limit` activities, newest first. limit <= 0 returns all.
		QueryRecentActivities(ctx context.Context, limit int) ([]Activity, error)
	}

	// Recorder is what the other services need to log their mutations.
	Recorder interface {
		Record(ctx context.Context, typ, description string, data map[string]interface{}) error
	}

	Service struct {
		repo  Repository
		limit int
	}
)

var _ Recorder = (*Service)(nil)

func NewService(repo Repository, conf *core.Config) *Service {
	limit := DefaultLimit
	if conf != nil && conf.Fees.ActivityLimit > 0 {
		limit = conf.Fees.ActivityLimit
	}
	return &Service{repo: repo, limit: limit}
}

// Record adds an activity attributed to the operator found in ctx.
func (svc *Service) Record(ctx context.Context, typ, description string, data map[string]interface{}) error {
	if data == nil {
		data = map[string]interface{}{}
	}
	_, err := svc.repo.AddActivity(ctx, Activity{
		ID:          core.NewID("activity"),
		Type:        typ,
		Description: description,
		Data:        data,
		Timestamp:   core.NowFunc(),
		User:        core.ActorFromContext(ctx).Name(),
	}, svc.limit)
	return err
}

func (svc *Service) Recent(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 || limit > svc.limit {
		limit = svc.limit
	}
	return svc.repo.QueryRecentActivities(ctx, limit)
}

package api

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/insight-studio/backend/internal/insight"
	"github.com/insight-studio/backend/internal/session"
	"github.com/insight-studio/backend/internal/table"
)

// insightJobs requests insights for a session's dataset and records the
// outcome against the dataset generation it was requested for.
type insightJobs struct {
	sessions *session.Manager
	service  *insight.Service
	timeout  time.Duration
	logger   *slog.Logger
}

func (j *insightJobs) enabled() bool {
	return j.service.Enabled()
}

// run requests insights synchronously and stores the result or failure.
func (j *insightJobs) run(ctx context.Context, sid string, gen uint64, t *table.Table) (*insight.InsightSet, error) {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	set, err := j.service.RequestInsights(ctx, t)
	if setErr := j.sessions.SetInsights(sid, gen, set, err); setErr != nil {
		if errors.Is(setErr, session.ErrStale) {
			j.logger.Debug("dropping insights for replaced dataset", "session", sid, "generation", gen)
		} else {
			j.logger.Warn("could not record insights", "session", sid, "error", setErr)
		}
	}
	return set, err
}

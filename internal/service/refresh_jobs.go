package service

import (
	"context"
	"time"

	"github.com/noah-isme/uf-rooms-api/pkg/jobs"
)

// RefreshJobType identifies snapshot refresh jobs on the worker queue.
const RefreshJobType = "availability.refresh"

type refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshJobHandler runs a bounded Refresh for every refresh job it receives.
func RefreshJobHandler(target refresher, timeout time.Duration) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		if job.Type != RefreshJobType {
			return nil
		}
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return target.Refresh(ctx)
	}
}

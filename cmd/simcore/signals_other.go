//go:build !unix

package main

import (
	"context"

	"github.com/hordesim/simcore/internal/scheduler"
	"go.uber.org/zap"
)

func hostSignals(ctx context.Context, _ *scheduler.Scheduler, _ *zap.Logger) {
	<-ctx.Done()
}

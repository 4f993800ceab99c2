//go:build unix

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hordesim/simcore/internal/scheduler"
	"go.uber.org/zap"
)

// hostSignals maps SIGUSR1/SIGUSR2 onto scheduler host events.
func hostSignals(ctx context.Context, sched *scheduler.Scheduler, log *zap.Logger) {
	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigCh:
			ev := scheduler.HostEvent{Kind: scheduler.EventToggleVisible}
			if sig == syscall.SIGUSR2 {
				ev.Kind = scheduler.EventTogglePause
			}
			if !sched.Post(ev) {
				log.Warn("host event dropped", zap.String("signal", sig.String()))
			}
		}
	}
}

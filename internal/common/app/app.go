package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/armadaproject/jointester/internal/common/logging"
)

// CreateContextWithShutdown returns a context that will report done when a SIGINT or SIGTERM is received
func CreateContextWithShutdown() context.Context {
	return contextWithShutdown(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func contextWithShutdown(parent context.Context, signals ...os.Signal) context.Context {
	ctx, cancel := context.WithCancel(parent)
	c := make(chan os.Signal, 1)
	signal.Notify(c, signals...)
	go func() {
		defer signal.Stop(c)
		select {
		case sig := <-c:
			log.Warnf("Received %s, stopping", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx
}

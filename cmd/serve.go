package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytsubs/internal/server"
	"github.com/desertthunder/ytsubs/internal/services"
	"github.com/desertthunder/ytsubs/internal/shared"
)

// Serve runs the local control API until interrupted.
//
// One queue and one list live for the whole process; a backend channelsUpdated event refetches the list.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}
	if _, err := r.sessionToken(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	closeStore := r.useStore()
	defer closeStore()

	list := r.engine.NewList(nil)
	defer list.Close()
	queue := r.engine.NewQueue(nil, func(ctx context.Context) error {
		if state := list.Refetch(ctx); state.Error != "" {
			return fmt.Errorf("%w: %s", shared.ErrAPIRequest, state.Error)
		}
		return nil
	})

	if url := r.config.Backend.EventsURL(); url != "" {
		stream := services.NewEventStream(url, shared.CurrentToken(r.tokens), shared.WithLogger(r.logger, "component", "events"))
		unsubscribe := stream.Subscribe(services.ChannelsUpdated, func(services.Event) {
			go list.Refetch(ctx)
		})
		defer unsubscribe()
		go stream.Run(ctx)
	}

	logger := shared.WithLogger(r.logger, "component", "server")
	router := server.NewBasicRouter()
	router.Use(server.Recoverer(logger), server.RequestLogger(logger))
	router.HandleFunc(http.MethodGet, "/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}` + "\n"))
	})
	router.Handler(server.NewQueueHandler(queue, list, logger))

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}
	r.writePlain("Control API listening on http://%s (Ctrl+C to stop)\n", addr)
	return server.Serve(ctx, addr, router, logger, nil)
}

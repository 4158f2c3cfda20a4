package main

import (
	"context"
	"fmt"

	"github.com/seamus-45/roficlip/internal/server"
	"github.com/seamus-45/roficlip/internal/service"
	"github.com/seamus-45/roficlip/internal/storage"
	"golang.org/x/sync/errgroup"
)

func (a *app) runDaemon(ctx context.Context, env *environment) error {
	var archive storage.Archive
	if env.cfg.Settings.Archive {
		arc, err := a.newArchive(env.paths.ArchiveDB)
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer arc.Close()
		archive = arc
	}

	svc := service.New(service.Options{
		Config:    env.cfg,
		Paths:     env.paths,
		Clipboard: env.clip,
		Notifier:  env.notifier,
		Archive:   archive,
		Logger:    env.log,
	})

	var api *server.Server
	if port := env.cfg.Settings.APIPort; port > 0 {
		api = server.New(server.Config{
			Port:     port,
			Paths:    env.paths,
			RingSize: env.cfg.Settings.RingSize,
			Archive:  archive,
			Logger:   env.log,
		})
		svc.RegisterHandler(api.Hub())
	}

	if err := svc.Start(); err != nil {
		return err
	}
	defer func() {
		if err := svc.Stop(); err != nil {
			env.log.Warn("unclean shutdown", "error", err)
		}
	}()

	// Whichever of the loop and the API fails first stops the other
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.Run(gctx)
	})
	if api != nil {
		g.Go(func() error {
			return api.Run(gctx)
		})
	}

	err := g.Wait()
	env.log.Info("shutting down")
	return err
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/urfave/cli/v3"

	"jobharvest/internal/config"
	"jobharvest/internal/events"
	"jobharvest/internal/harvest"
	"jobharvest/internal/normalize"
	"jobharvest/internal/scheduler"
)

func runAction(ctx context.Context, cmd *cli.Command) error {
	app, err := newAppContext(ctx, cmd)
	if err != nil {
		return err
	}
	cfg := app.cfg

	if f := cmd.String("keywords-file"); f != "" {
		if err := config.OverlayKeywords(&cfg, f); err != nil {
			return fmt.Errorf("keywords file %s: %w", f, err)
		}
	}
	if kws := cmd.StringSlice("keyword"); len(kws) > 0 {
		cfg.Keywords = kws
	}
	if ds := cmd.String("dataset"); ds != "" {
		cfg.App.Dataset = ds
	}
	if every := cmd.Duration("every"); every > 0 {
		cfg.Schedule.Every = every
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	cfg, _ = config.NormalizeAndValidate(cfg)

	obs := events.Log(app.logger)
	if cmd.Bool("events-json") {
		stop := streamEvents(os.Stdout)
		defer stop()
		obs = events.Multi(obs, eventHub)
	}

	adapters, err := buildAdapters(cfg, obs)
	if err != nil {
		return err
	}
	sinks, closeSinks := buildSinks(ctx, cfg, obs)
	defer closeSinks()

	engine := normalize.New(buildLexicon(cfg), obs)
	coord, err := harvest.New(adapters, engine, sinks, harvest.Options{
		Keywords: cfg.Keywords,
		Dataset:  cfg.App.Dataset,
		Observer: obs,
	})
	if err != nil {
		return err
	}

	report := func(rep harvest.Report) {
		for _, f := range rep.Failures {
			app.logger.Warn("keyword abandoned", "source", f.Source, "keyword", f.Keyword, "err", f.Err)
		}
		app.logger.Info("harvest finished",
			"run", rep.RunID,
			"raw", rep.Raw,
			"jobs", len(rep.Jobs),
			"duplicates", rep.Removed,
			"took", rep.FinishedAt.Sub(rep.StartedAt).Round(time.Millisecond),
		)
		if !cmd.Bool("events-json") {
			_ = rep.Summary.WriteText(os.Stdout)
		}
	}

	if cfg.Schedule.Every <= 0 {
		rep, err := coord.Run(ctx)
		report(rep)
		if err != nil {
			return err
		}
		return rep.Err()
	}

	var tracker harvest.Tracker
	app.logger.Info("scheduled harvest", "every", cfg.Schedule.Every, "keywords", strings.Join(cfg.Keywords, ", "))
	scheduler.Every(ctx, cfg.Schedule.Every, "harvest", func(ctx context.Context) error {
		return coord.Track(ctx, &tracker, report)
	})
	st := tracker.Load()
	app.logger.Info("scheduler stopped", "last_run", st.LastRunAt, "last_ok", st.LastOkAt, "last_error", st.LastError)
	return nil
}

var eventHub = events.NewHub()

// streamEvents writes every event published on eventHub to w as one JSON
// object per line until the returned stop func is called.
func streamEvents(w io.Writer) (stop func()) {
	ch := eventHub.Subscribe()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for msg := range ch {
			_, _ = io.WriteString(w, msg+"\n")
		}
	}()
	return func() {
		eventHub.Unsubscribe(ch)
		wg.Wait()
	}
}

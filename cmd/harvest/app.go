package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v3"

	"jobharvest/internal/config"
	"jobharvest/internal/logging"
)

const defaultConfigPath = "config/config.yml"

// configPath resolves --config, bootstrapping <data-dir>/config.yml when no
// explicit file is given.
func configPath(cmd *cli.Command) (string, error) {
	if p := strings.TrimSpace(cmd.String("config")); p != "" {
		return p, nil
	}
	p, err := config.EnsureUserConfig(cmd.String("data-dir"), defaultConfigPath)
	if err != nil {
		return "", fmt.Errorf("config bootstrap failed: %w", err)
	}
	return p, nil
}

// loadConfig reads the env file, the config file and HARVEST_* overrides,
// then validates. Warnings are logged once the logger exists.
func loadConfig(cmd *cli.Command) (config.Config, config.Validation, error) {
	if err := config.LoadEnv(cmd.String("env")); err != nil {
		return config.Config{}, config.Validation{}, err
	}
	path, err := configPath(cmd)
	if err != nil {
		return config.Config{}, config.Validation{}, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, config.Validation{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return cfg, config.Validation{}, err
	}
	if lvl := cmd.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	cfg, res := config.NormalizeAndValidate(cfg)
	if !res.OK() {
		return cfg, res, fmt.Errorf("config %s is invalid:\n- %s", path, strings.Join(res.Errors, "\n- "))
	}
	return cfg, res, nil
}

type appContext struct {
	cfg    config.Config
	logger *slog.Logger
}

func newAppContext(_ context.Context, cmd *cli.Command) (*appContext, error) {
	cfg, res, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, nil)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		logger.Warn("config", "warning", w)
	}
	return &appContext{cfg: cfg, logger: logger}, nil
}

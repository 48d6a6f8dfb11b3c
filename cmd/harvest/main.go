package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "harvest",
		Usage: "harvest job listings from JobsGo and TopCV into CSV, SQLite, Postgres or Google Sheets",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "env file path",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "directory holding config.yml",
				Value:   ".",
				Sources: cli.EnvVars("HARVEST_HOME"),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file (default: <data-dir>/config.yml, created on first use)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override log.level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "harvest every enabled site and save to every enabled sink",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "keyword",
						Aliases: []string{"k"},
						Usage:   "search keyword (repeatable, replaces the configured list)",
					},
					&cli.StringFlag{
						Name:  "keywords-file",
						Usage: "YAML file with keywords and extra lexicon terms",
					},
					&cli.StringFlag{
						Name:  "dataset",
						Usage: "logical dataset name (file, worksheet, table tag)",
					},
					&cli.DurationFlag{
						Name:  "every",
						Usage: "repeat the harvest at this interval until interrupted",
					},
					&cli.BoolFlag{
						Name:  "events-json",
						Usage: "write every harvest event to stdout as JSON lines",
					},
				},
				Action: runAction,
			},
			{
				Name:  "config",
				Usage: "configuration commands",
				Commands: []*cli.Command{
					{
						Name:  "init",
						Usage: "write the default configuration",
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "force",
								Usage: "overwrite an existing file (the old one is kept as .bak)",
							},
						},
						Action: configInitAction,
					},
					{
						Name:   "validate",
						Usage:  "check the configuration and list every problem",
						Action: configValidateAction,
					},
				},
			},
			{
				Name:  "secrets",
				Usage: "OS keychain commands",
				Commands: []*cli.Command{
					{
						Name:  "set-sheets",
						Usage: "store a Google service-account key for the configured spreadsheet",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "file",
								Usage:    "service-account JSON key file (- for stdin)",
								Required: true,
							},
						},
						Action: secretsSetSheetsAction,
					},
					{
						Name:   "delete-sheets",
						Usage:  "remove the stored service-account key",
						Action: secretsDeleteSheetsAction,
					},
				},
			},
			{
				Name:  "jobs",
				Usage: "inspect jobs saved in the SQLite store",
				Commands: []*cli.Command{
					{
						Name:  "list",
						Usage: "list saved jobs",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "dataset",
								Usage: "dataset name",
							},
							&cli.StringFlag{
								Name:  "source",
								Usage: "filter by site (JobsGo, TopCV)",
							},
							&cli.StringFlag{
								Name:  "sort",
								Usage: "salary, exp, title, company or period",
								Value: "period",
							},
							&cli.IntFlag{
								Name:  "limit",
								Usage: "maximum rows",
								Value: 50,
							},
							&cli.BoolFlag{
								Name:  "json",
								Usage: "print JSON instead of a table",
							},
						},
						Action: jobsListAction,
					},
					{
						Name:  "cleanup",
						Usage: "delete saved jobs from periods before a month",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "before",
								Usage:    "first month to keep, as YYYY-MM",
								Required: true,
							},
						},
						Action: jobsCleanupAction,
					},
				},
			},
		},
	}
}

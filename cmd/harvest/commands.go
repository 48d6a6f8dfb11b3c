package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"jobharvest/internal/config"
	"jobharvest/internal/domain"
	"jobharvest/internal/secrets"
	"jobharvest/internal/store/sqlite"
)

func configInitAction(_ context.Context, cmd *cli.Command) error {
	path := strings.TrimSpace(cmd.String("config"))
	if path == "" {
		path = filepath.Join(cmd.String("data-dir"), "config.yml")
	}
	if _, err := os.Stat(path); err == nil && !cmd.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.SaveAtomic(path, config.Default()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.Root().Writer, "wrote %s\n", path)
	return nil
}

func configValidateAction(_ context.Context, cmd *cli.Command) error {
	cfg, res, err := loadConfig(cmd)
	out := cmd.Root().Writer
	for _, w := range res.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "ok: %d keywords, dataset %q\n", len(cfg.Keywords), cfg.App.Dataset)
	return nil
}

func secretsSetSheetsAction(_ context.Context, cmd *cli.Command) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Sinks.Sheets.SpreadsheetID == "" {
		return errors.New("sinks.sheets.spreadsheet_id is not set")
	}

	var creds []byte
	if f := cmd.String("file"); f == "-" {
		creds, err = io.ReadAll(os.Stdin)
	} else {
		creds, err = os.ReadFile(f)
	}
	if err != nil {
		return fmt.Errorf("read credentials: %w", err)
	}

	acct := secrets.SheetsKeyringAccount(cfg)
	if err := secrets.SetSheetsCredentials(acct, creds); err != nil {
		return err
	}
	fmt.Fprintf(cmd.Root().Writer, "stored credentials as %s\n", acct)
	return nil
}

func secretsDeleteSheetsAction(_ context.Context, cmd *cli.Command) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	acct := secrets.SheetsKeyringAccount(cfg)
	if err := secrets.DeleteSheetsCredentials(acct); err != nil {
		return err
	}
	fmt.Fprintf(cmd.Root().Writer, "deleted %s\n", acct)
	return nil
}

func openStore(ctx context.Context, cmd *cli.Command) (*sqlite.DB, config.Config, error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return nil, cfg, err
	}
	db, err := sqlite.Open(ctx, cfg.Resolve(cfg.Sinks.SQLite.Path))
	if err != nil {
		return nil, cfg, err
	}
	return db, cfg, nil
}

func jobsListAction(ctx context.Context, cmd *cli.Command) error {
	db, cfg, err := openStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	dataset := cmd.String("dataset")
	if dataset == "" {
		dataset = cfg.App.Dataset
	}
	jobs, err := db.List(ctx, sqlite.ListOpts{
		Dataset: dataset,
		Source:  cmd.String("source"),
		Sort:    cmd.String("sort"),
		Limit:   cmd.Int("limit"),
	})
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	if cmd.Bool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(jobRows(jobs))
	}
	return writeJobsTable(out, jobs)
}

// jobRows keys each record by column name.
func jobRows(jobs []domain.Job) []map[string]string {
	out := make([]map[string]string, 0, len(jobs))
	for _, j := range jobs {
		rec := j.Record()
		row := make(map[string]string, len(rec))
		for i, c := range domain.Columns {
			row[c] = rec[i]
		}
		out = append(out, row)
	}
	return out
}

func writeJobsTable(w io.Writer, jobs []domain.Job) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tPERIOD\tID\tTITLE\tCOMPANY\tSALARY\tEXP\tTOOLS")
	for _, j := range jobs {
		rec := j.Record()
		fmt.Fprintf(tw, "%s\t%02d/%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			j.Source, j.Month, j.Year, j.JobID, truncate(j.Title, 40), truncate(j.Company, 30),
			rec[6], rec[8], rec[12])
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func jobsCleanupAction(ctx context.Context, cmd *cli.Command) error {
	before, err := time.Parse("2006-01", cmd.String("before"))
	if err != nil {
		return fmt.Errorf("--before %q: want YYYY-MM", cmd.String("before"))
	}
	db, _, err := openStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.CleanupBefore(ctx, before.Year(), int(before.Month()))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.Root().Writer, "deleted %d rows\n", n)
	return nil
}

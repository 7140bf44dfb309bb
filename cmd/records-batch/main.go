package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/records-ingest/constants"
	"github.com/joseph-ayodele/records-ingest/internal/app"
	"github.com/joseph-ayodele/records-ingest/internal/common"
	"github.com/joseph-ayodele/records-ingest/internal/ingest"
	"github.com/joseph-ayodele/records-ingest/internal/pipeline"
)

type options struct {
	configPath string
	dir        string
	dsn        string
	workers    int
	export     string
	exportKind string
	department string
	verbose    bool
}

func main() {
	var opts options
	cmd := &cobra.Command{
		Use:   "records-batch --dir <uploads>",
		Short: "Extract every spreadsheet under <dir>/<category>/ in one pass",
		Long: "Reads each file under <dir>/<category>/, admits it through the content-hash gate,\n" +
			"extracts it with the category's extractor and prints a per-file outcome table.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	f.StringVar(&opts.dir, "dir", "", "upload root laid out as <dir>/<category>/<file> (required)")
	f.StringVar(&opts.dsn, "db", "", "database DSN, overrides the config (file:records.db or postgres://...)")
	f.IntVar(&opts.workers, "workers", 0, "files processed concurrently (default from config)")
	f.StringVar(&opts.export, "export", "", "write an XLSX export to this path after processing")
	f.StringVar(&opts.exportKind, "export-kind", "schedules", "export contents: schedules, grades or students")
	f.StringVar(&opts.department, "department", "", "limit the export to one department code")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")
	_ = cmd.MarkFlagRequired("dir")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, opts options) error {
	ctx := cmd.Context()

	cfg, err := common.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.dsn != "" {
		cfg.Database.DSN = opts.dsn
	}
	if opts.workers > 0 {
		cfg.Ingest.Workers = opts.workers
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := cfg.Log.NewLogger()

	a, err := app.New(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	uploads, stats, err := ingest.CollectUploads(opts.dir, true, logger)
	if err != nil {
		return err
	}
	logger.Info("batch.collected", "dir", opts.dir, "scanned", stats.Scanned, "matched", stats.Matched,
		"readable", stats.Succeeded, "failed", stats.Failed)

	batchCtx := common.WithBatchID(ctx, filepath.Base(opts.dir))
	reports, err := a.Processor.ProcessBatch(batchCtx, uploads, cfg.Ingest.Workers)
	printReports(cmd, reports)
	if err != nil {
		return err
	}

	if opts.export != "" {
		data, err := exportBytes(ctx, a, opts.exportKind, opts.department)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.export, data, 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		cmd.Printf("\nexport written to %s\n", opts.export)
	}
	return nil
}

func exportBytes(ctx context.Context, a *app.App, kind, department string) ([]byte, error) {
	switch kind {
	case "schedules":
		return a.Export.ExportSchedulesXLSX(ctx, department)
	case "grades":
		return a.Export.ExportGradesXLSX(ctx, department)
	case "students":
		return a.Export.ExportStudentsXLSX(ctx, department)
	default:
		return nil, fmt.Errorf("%w: unknown export kind %q", common.ErrInvalidInput, kind)
	}
}

func printReports(cmd *cobra.Command, reports []pipeline.Report) {
	for _, r := range reports {
		line := fmt.Sprintf("%-20s %-22s %s", r.Outcome, r.Category, r.Filename)
		if r.RecordID != "" {
			line += "  -> " + r.RecordID
		}
		if r.Err != nil && r.Outcome != constants.OutcomeDuplicate {
			line += "  (" + r.Err.Error() + ")"
		}
		cmd.Println(line)
	}

	summary := pipeline.Summarize(reports)
	outcomes := make([]string, 0, len(summary))
	for o := range summary {
		outcomes = append(outcomes, string(o))
	}
	sort.Strings(outcomes)
	cmd.Printf("\n%d files\n", len(reports))
	for _, o := range outcomes {
		cmd.Printf("  %-20s %d\n", o, summary[constants.Outcome(o)])
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cv-status/internal/app"
	"cv-status/internal/cv"
	"cv-status/internal/ingest"
)

var (
	syncFolder string
	syncForce  bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Ingest CVs from the configured folder",
	Long: `Lists the folder, extracts every new or changed document and upserts the candidates.
Unchanged documents are skipped unless --force is given.

Examples:
  cvctl sync
  cvctl sync --folder 1AbCdEfG
  cvctl sync --force`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVarP(&syncFolder, "folder", "f", "", "folder ID (defaults to GOOGLE_DRIVE_FOLDER_ID)")
	syncCmd.Flags().BoolVar(&syncForce, "force", false, "re-extract documents even when unchanged")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	folder := syncFolder
	if folder == "" {
		folder = cfg.DriveFolderID
	}
	if folder == "" && cfg.SourceDir == "" {
		return fmt.Errorf("no folder: pass --folder or set GOOGLE_DRIVE_FOLDER_ID")
	}

	source, err := app.NewSource(ctx, cfg, app.HTTPClient(), logger)
	if err != nil {
		return err
	}
	extractor, closeExtractor, err := app.NewExtractor(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeExtractor()

	orch := ingest.NewOrchestrator(db, source, cv.NewParser(cfg.UploadsDir), extractor, logger, cfg.SyncConcurrency)
	report, err := orch.Sync(ctx, folder, syncForce)
	if report != nil {
		printReport(cmd, report)
	}
	if err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d documents failed", report.Failed)
	}
	return nil
}

func printReport(cmd *cobra.Command, r *ingest.SyncReport) {
	out := cmd.OutOrStdout()
	for _, item := range r.Items {
		switch {
		case item.Outcome == ingest.OutcomeFailed:
			fmt.Fprintf(out, "  failed   %s: [%s] %s\n", item.Name, item.ErrorCode, item.Error)
		case verbose || item.Outcome != ingest.OutcomeSkipped:
			fmt.Fprintf(out, "  %-8s %s\n", item.Outcome, item.Name)
		}
	}
	fmt.Fprintf(out, "Created %d, updated %d, skipped %d, failed %d in %s\n",
		r.Created, r.Updated, r.Skipped, r.Failed, r.Duration)
}

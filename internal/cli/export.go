package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cv-status/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export <out.xlsx>",
	Short: "Export candidates and campaigns to a spreadsheet",
	Long: `Writes a workbook with a status summary, every candidate and every campaign.
A missing .xlsx extension is added.

Examples:
  cvctl export ./candidates.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	report, err := export.Load(cmd.Context(), db)
	if err != nil {
		return fmt.Errorf("load export: %w", err)
	}
	path, err := export.WriteFile(args[0], report)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d candidates and %d campaigns to %s\n",
		len(report.Candidates), len(report.Campaigns), path)
	return nil
}

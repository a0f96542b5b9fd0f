package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cv-status/internal/status"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Inspect and override candidate statuses",
	Long: `Subcommands:
  set      Manually set a candidate's status
  summary  Count candidates per status

Examples:
  cvctl status set 3f0c... INTERVIEW
  cvctl status summary`,
}

var statusSetCmd = &cobra.Command{
	Use:   "set <candidate-id> <STATUS>",
	Short: "Manually set a candidate's status",
	Args:  cobra.ExactArgs(2),
	RunE:  runStatusSet,
}

var statusSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Count candidates per status",
	Args:  cobra.NoArgs,
	RunE:  runStatusSummary,
}

func init() {
	statusCmd.AddCommand(statusSetCmd)
	statusCmd.AddCommand(statusSummaryCmd)
}

func runStatusSet(cmd *cobra.Command, args []string) error {
	target, err := status.Parse(args[1])
	if err != nil {
		return err
	}
	cand, err := tracker().SetStatus(cmd.Context(), args[0], target)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s is now %s\n", cand.ID, cand.Email, cand.Status)
	return nil
}

func runStatusSummary(cmd *cobra.Command, args []string) error {
	counts, err := db.CountCandidatesByStatus(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	total := 0
	for _, s := range status.All {
		fmt.Fprintf(out, "%-10s %d\n", s, counts[s])
		total += counts[s]
	}
	fmt.Fprintf(out, "%-10s %d\n", "TOTAL", total)
	return nil
}

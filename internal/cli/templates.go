package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cv-status/internal/template"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage email templates",
	Long: `Templates are seeded from YAML files of the form

  templates:
    - name: intro
      subject: "Hi {{first_name}}"
      body_markdown: |
        We are hiring a **{{role}}** at {{company}}.

Subcommands:
  import    Create or replace templates by name
  validate  Check a file without touching the database

Examples:
  cvctl templates validate ./templates.yaml
  cvctl templates import ./templates.yaml`,
}

var templatesImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Create or replace templates by name",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatesImport,
}

var templatesValidateCmd = &cobra.Command{
	Use:         "validate <file.yaml>",
	Short:       "Check a template file",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{noDB: "true"},
	RunE:        runTemplatesValidate,
}

func init() {
	templatesCmd.AddCommand(templatesImportCmd)
	templatesCmd.AddCommand(templatesValidateCmd)
}

func runTemplatesImport(cmd *cobra.Command, args []string) error {
	tmpls, err := template.LoadFile(args[0])
	if err != nil {
		return err
	}
	created, updated, err := tracker().ImportTemplates(cmd.Context(), tmpls)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s: %d created, %d updated\n", args[0], created, updated)
	return nil
}

func runTemplatesValidate(cmd *cobra.Command, args []string) error {
	tmpls, err := template.LoadFile(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, t := range tmpls {
		fmt.Fprintf(out, "  ok  %s\n", t.Name)
	}
	fmt.Fprintf(out, "%d templates valid\n", len(tmpls))
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	drive "google.golang.org/api/drive/v3"
	gmail "google.golang.org/api/gmail/v1"

	"cv-status/internal/gauth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize Drive and Gmail access with a Google account",
	Long: `Runs the installed-app OAuth flow with the client in GOOGLE_OAUTH_CREDENTIALS and
stores the resulting token at GOOGLE_OAUTH_TOKEN. The token grants read-only Drive access
and Gmail send access.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{noDB: "true"},
	RunE:        runAuth,
}

func runAuth(cmd *cobra.Command, args []string) error {
	conf, err := gauth.OAuthConfig(cfg.GoogleOAuthCredentials, drive.DriveReadonlyScope, gmail.GmailSendScope)
	if err != nil {
		return err
	}
	tok, err := gauth.TokenFromWeb(cmd.Context(), conf, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := gauth.SaveToken(cfg.GoogleOAuthToken, tok); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", cfg.GoogleOAuthToken)
	return nil
}

// Package app builds the service's components from configuration. The API server and
// the operator CLI share it so both run against the same wiring.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"cv-status/internal/config"
	"cv-status/internal/cv"
	"cv-status/internal/drive"
	"cv-status/internal/gauth"
	"cv-status/internal/llm"
	"cv-status/internal/mail"
	"cv-status/internal/storage"
	httpclient "cv-status/pkg/http"
)

// outboundTimeout bounds single Google and SendGrid calls; Drive exports of large files
// are the slowest.
const outboundTimeout = 2 * time.Minute

// Credentials returns the Google credential files from cfg.
func Credentials(cfg *config.Config) gauth.Credentials {
	return gauth.Credentials{
		ServiceAccountFile: existing(cfg.GoogleServiceAccountFile),
		OAuthCredentials:   cfg.GoogleOAuthCredentials,
		OAuthToken:         cfg.GoogleOAuthToken,
	}
}

// HTTPClient is the shared outbound client.
func HTTPClient() *http.Client {
	return httpclient.NewClient(outboundTimeout).HTTPClient()
}

// OpenDB connects and migrates.
func OpenDB(cfg *config.Config, logger *slog.Logger) (*storage.DB, error) {
	db, err := storage.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	logger.Info("database connected", "dialect", db.Dialect())
	return db, nil
}

// NewSource returns the local directory source when SOURCE_DIR is set, Google Drive otherwise.
func NewSource(ctx context.Context, cfg *config.Config, client *http.Client, logger *slog.Logger) (drive.Source, error) {
	if cfg.SourceDir != "" {
		logger.Info("using local folder source", "root", cfg.SourceDir)
		return drive.NewDir(cfg.SourceDir), nil
	}
	src, err := drive.NewGoogleDrive(ctx, Credentials(cfg), client, logger)
	if err != nil {
		return nil, fmt.Errorf("google drive: %w", err)
	}
	return src, nil
}

// NewExtractor returns the LLM-backed extractor, or the rule-based one when
// LLM_PROVIDER=none. The close func is never nil.
func NewExtractor(ctx context.Context, cfg *config.Config, logger *slog.Logger) (llm.Extractor, func() error, error) {
	if llm.Provider(cfg.LLMProvider) == llm.ProviderNone {
		logger.Info("LLM disabled, using rule-based extraction")
		return cv.NewBasicExtractor(), func() error { return nil }, nil
	}
	gen, closeFn, err := llm.NewGenerator(ctx, cfg)
	if err != nil {
		return nil, closeFn, fmt.Errorf("llm: %w", err)
	}
	logger.Info("LLM extraction enabled", "provider", cfg.LLMProvider, "model", cfg.LLMModel)
	return llm.NewService(gen, logger), closeFn, nil
}

// NewTransport returns the configured outbound mail transport.
func NewTransport(ctx context.Context, cfg *config.Config, client *http.Client) (mail.Transport, error) {
	switch cfg.MailTransport {
	case "gmail":
		g, err := mail.NewGmail(ctx, Credentials(cfg), client, cfg.SendGridFromMail, cfg.SendGridFromName)
		if err != nil {
			return nil, fmt.Errorf("gmail: %w", err)
		}
		return g, nil
	default:
		if cfg.SendGridAPIKey == "" || cfg.SendGridFromMail == "" {
			return nil, fmt.Errorf("SENDGRID_API_KEY and SENDGRID_FROM_EMAIL are required for MAIL_TRANSPORT=sendgrid")
		}
		return mail.NewSendGrid(cfg.SendGridAPIKey, cfg.SendGridFromMail, cfg.SendGridFromName, "", client), nil
	}
}

// existing returns path when the file is there. The service account default points at a
// file most OAuth setups do not have.
func existing(path string) string {
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"cv-status/internal/apperr"
	"cv-status/internal/gauth"
)

const (
	mimeFolder    = "application/vnd.google-apps.folder"
	mimeGoogleDoc = "application/vnd.google-apps.document"
	mimeDOCX      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	listPageSize  = 100
)

// GoogleDrive is a Source backed by the Drive v3 API.
type GoogleDrive struct {
	service *drive.Service
	logger  *slog.Logger
}

// NewGoogleDrive authenticates with a service account or a cached OAuth token.
func NewGoogleDrive(ctx context.Context, creds gauth.Credentials, base *http.Client, logger *slog.Logger) (*GoogleDrive, error) {
	client, err := gauth.HTTPClient(ctx, creds, base, drive.DriveReadonlyScope)
	if err != nil {
		return nil, err
	}
	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive client: %w", err)
	}
	return NewGoogleDriveWithService(srv, logger), nil
}

// NewGoogleDriveWithService wraps an existing client. Tests point it at a fake endpoint.
func NewGoogleDriveWithService(srv *drive.Service, logger *slog.Logger) *GoogleDrive {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoogleDrive{service: srv, logger: logger}
}

// List returns the non-folder, non-trashed files directly inside folderRef.
// Google Docs are reported as DOCX since Fetch exports them in that format.
func (g *GoogleDrive) List(ctx context.Context, folderRef string) ([]Document, error) {
	if folderRef == "" {
		return nil, apperr.Validation("folder id is required")
	}
	q := fmt.Sprintf("'%s' in parents and trashed = false", strings.ReplaceAll(folderRef, "'", `\'`))

	var docs []Document
	pageToken := ""
	for {
		call := g.service.Files.List().
			Q(q).
			Fields("nextPageToken, files(id, name, mimeType, md5Checksum, modifiedTime, size)").
			PageSize(listPageSize).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		res, err := call.Do()
		if err != nil {
			return nil, mapAPIError(err, "folder", folderRef)
		}

		for _, f := range res.Files {
			if f.MimeType == mimeFolder {
				continue
			}
			modified, _ := time.Parse(time.RFC3339, f.ModifiedTime)
			doc := Document{
				RemoteID:    f.Id,
				Name:        f.Name,
				MimeType:    f.MimeType,
				SourceMime:  f.MimeType,
				Fingerprint: Fingerprint(f.Md5Checksum, modified, f.Size),
				Size:        f.Size,
				ModifiedAt:  modified.UTC(),
			}
			if f.MimeType == mimeGoogleDoc {
				doc.MimeType = mimeDOCX
				if !strings.HasSuffix(strings.ToLower(doc.Name), ".docx") {
					doc.Name += ".docx"
				}
			}
			docs = append(docs, doc)
		}

		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}

	g.logger.Debug("listed drive folder", "folder", folderRef, "documents", len(docs))
	return docs, nil
}

// Fetch downloads a file, exporting Google Docs to DOCX.
func (g *GoogleDrive) Fetch(ctx context.Context, doc Document) ([]byte, error) {
	var resp *http.Response
	var err error
	if doc.SourceMime == mimeGoogleDoc {
		resp, err = g.service.Files.Export(doc.RemoteID, mimeDOCX).Context(ctx).Download()
	} else {
		resp, err = g.service.Files.Get(doc.RemoteID).SupportsAllDrives(true).Context(ctx).Download()
	}
	if err != nil {
		return nil, mapAPIError(err, "document", doc.RemoteID)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", doc.RemoteID, err)
	}
	if len(b) > MaxDocumentBytes {
		return nil, apperr.ExtractionFailed(fmt.Sprintf("document is larger than %d bytes", MaxDocumentBytes), nil)
	}
	return b, nil
}

func mapAPIError(err error, kind, id string) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusNotFound:
			return apperr.NotFound(kind, id)
		case http.StatusUnauthorized, http.StatusForbidden:
			return apperr.PermissionDenied(id, err)
		}
	}
	return fmt.Errorf("drive %s %s: %w", kind, id, err)
}

// Package drive lists and downloads candidate documents from a remote folder.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"cv-status/internal/apperr"
)

// MaxDocumentBytes caps a single download.
const MaxDocumentBytes = 25 << 20

// Document is one file in a folder listing.
type Document struct {
	RemoteID    string    `json:"remote_id"`
	Name        string    `json:"name"`
	MimeType    string    `json:"mime_type"`
	Fingerprint string    `json:"fingerprint"`
	Size        int64     `json:"size"`
	ModifiedAt  time.Time `json:"modified_at"`
	// SourceMime differs from MimeType when the document is exported on fetch.
	SourceMime string `json:"-"`
}

// Source is a folder of documents.
type Source interface {
	List(ctx context.Context, folderRef string) ([]Document, error)
	Fetch(ctx context.Context, doc Document) ([]byte, error)
}

// Fingerprint derives the ingestion cursor: the content hash when the store provides one,
// otherwise modification time and size.
func Fingerprint(md5 string, modified time.Time, size int64) string {
	if md5 != "" {
		return "md5:" + md5
	}
	return modified.UTC().Format(time.RFC3339Nano) + "|" + strconv.FormatInt(size, 10)
}

// Dir is a Source over a local directory, used for development and the CLI.
// folderRef is a path; relative paths resolve against Root.
//
// Dir is path-keyed: a document's RemoteID is its absolute, symlink-free path, so the
// same file reached through different folder refs has one identity, but renaming a file
// makes it a new document. Use the Drive source where renames must keep the candidate.
type Dir struct {
	Root string
}

func NewDir(root string) *Dir {
	return &Dir{Root: root}
}

func (d *Dir) resolve(ref string) (string, error) {
	p := ref
	if !filepath.IsAbs(ref) && d.Root != "" {
		p = filepath.Join(d.Root, ref)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		abs = real
	}
	return abs, nil
}

func (d *Dir) List(ctx context.Context, folderRef string) ([]Document, error) {
	dir, err := d.resolve(folderRef)
	if err != nil {
		return nil, apperr.Validationf("folder %q: %v", folderRef, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, mapFSError(err, "folder", folderRef)
	}

	docs := make([]Document, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(dir, e.Name())
		docs = append(docs, Document{
			RemoteID:    "file:" + path,
			Name:        e.Name(),
			MimeType:    mime.TypeByExtension(filepath.Ext(e.Name())),
			Fingerprint: Fingerprint("", info.ModTime(), info.Size()),
			Size:        info.Size(),
			ModifiedAt:  info.ModTime().UTC(),
		})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

func (d *Dir) Fetch(ctx context.Context, doc Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := strings.TrimPrefix(doc.RemoteID, "file:")
	info, err := os.Stat(path)
	if err != nil {
		return nil, mapFSError(err, "document", doc.RemoteID)
	}
	if info.Size() > MaxDocumentBytes {
		return nil, apperr.ExtractionFailed(fmt.Sprintf("document is larger than %d bytes", MaxDocumentBytes), nil)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, mapFSError(err, "document", doc.RemoteID)
	}
	return b, nil
}

func mapFSError(err error, kind, id string) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return apperr.NotFound(kind, id)
	case errors.Is(err, fs.ErrPermission):
		return apperr.PermissionDenied(id, err)
	}
	return err
}

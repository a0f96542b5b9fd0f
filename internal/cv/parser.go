package cv

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"
	"github.com/jaytaylor/html2text"

	"cv-status/internal/apperr"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeDOC  = "application/msword"
	MimeODT  = "application/vnd.oasis.opendocument.text"
	MimeRTF  = "application/rtf"
	MimeText = "text/plain"
	MimeHTML = "text/html"
)

// TextExtractor turns a fetched document into plain text.
type TextExtractor interface {
	ExtractText(ctx context.Context, name, mimeType string, content []byte) (string, error)
}

// Parser extracts text with docconv, HTML with html2text. When uploadsDir is set, every
// fetched document is also kept on disk under its name for later inspection.
type Parser struct {
	uploadsDir string
}

func NewParser(uploadsDir string) *Parser {
	return &Parser{uploadsDir: uploadsDir}
}

// ResolveMime picks the effective MIME type, falling back to the file extension when the
// source reports nothing useful.
func ResolveMime(name, mimeType string) string {
	mimeType = strings.TrimSpace(strings.ToLower(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		switch strings.ToLower(filepath.Ext(name)) {
		case ".txt", ".md":
			return MimeText
		case ".rtf":
			return MimeRTF
		}
		return docconv.MimeTypeByExtension(name)
	}
	return mimeType
}

// Supported reports whether a MIME type can be turned into text.
func Supported(mimeType string) bool {
	switch mimeType {
	case MimePDF, MimeDOCX, MimeDOC, MimeODT, MimeRTF, "text/rtf", MimeText, MimeHTML:
		return true
	}
	return false
}

// ExtractText dispatches on MIME type. Unsupported formats and empty results are
// extraction failures, never empty candidates.
func (p *Parser) ExtractText(ctx context.Context, name, mimeType string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	mimeType = ResolveMime(name, mimeType)
	if !Supported(mimeType) {
		return "", apperr.ExtractionFailed(fmt.Sprintf("unsupported format %q", mimeType), nil)
	}
	p.keep(name, content)

	var text string
	switch mimeType {
	case MimeText:
		if !utf8.Valid(content) {
			return "", apperr.ExtractionFailed("text file is not valid UTF-8", nil)
		}
		text = string(content)
	case MimeHTML:
		// docconv's HTML path shells out to tidy.
		out, err := html2text.FromString(string(content), html2text.Options{OmitLinks: true})
		if err != nil {
			return "", apperr.ExtractionFailed("failed to parse document", err)
		}
		text = out
	default:
		res, err := docconv.Convert(bytes.NewReader(content), mimeType, false)
		if err != nil {
			return "", apperr.ExtractionFailed("failed to parse document", err)
		}
		text = res.Body
	}

	text = normalizeWhitespace(text)
	if text == "" {
		return "", apperr.ExtractionFailed("no text extracted", nil)
	}
	return text, nil
}

func (p *Parser) keep(name string, content []byte) {
	if p.uploadsDir == "" {
		return
	}
	if err := os.MkdirAll(p.uploadsDir, 0755); err != nil {
		return
	}
	_ = os.WriteFile(filepath.Join(p.uploadsDir, filepath.Base(name)), content, 0644)
}

// normalizeWhitespace collapses runs of blank lines and trailing spaces left by converters.
func normalizeWhitespace(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " \t ")
		if strings.TrimSpace(l) == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

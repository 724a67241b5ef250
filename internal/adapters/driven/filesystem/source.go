// Package filesystem reads the document corpus from a local directory.
package filesystem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentSource = (*Source)(nil)

// DefaultMaxFileBytes bounds the size of a single document
const DefaultMaxFileBytes = 32 << 20

// mimeTypes maps supported extensions to the MIME types normalisers are keyed by
var mimeTypes = map[string]string{
	".txt":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".html":     "text/html",
	".htm":      "text/html",
	".pdf":      "application/pdf",
}

// MimeType returns the MIME type for a supported path, or "" if unsupported
func MimeType(path string) string {
	return mimeTypes[strings.ToLower(filepath.Ext(path))]
}

// Source lists and reads supported documents under a directory tree.
type Source struct {
	maxBytes int64
}

// NewSource creates a Source. maxBytes <= 0 uses DefaultMaxFileBytes.
func NewSource(maxBytes int64) *Source {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}
	return &Source{maxBytes: maxBytes}
}

// List walks dir recursively and returns supported files as slash-separated
// paths relative to dir, in lexical order. Hidden files and directories are skipped.
func (s *Source) List(ctx context.Context, dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: document directory %s", domain.ErrNotFound, dir)
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || MimeType(path) == "" {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return paths, nil
}

// Read extracts the text of dir/path. PDFs go through the PDF text layer;
// everything else is read as UTF-8 with invalid bytes replaced.
func (s *Source) Read(ctx context.Context, dir, path string) (*domain.Document, error) {
	if !filepath.IsLocal(filepath.FromSlash(path)) {
		return nil, fmt.Errorf("%w: path %q escapes the document directory", domain.ErrInvalidInput, path)
	}
	mime := MimeType(path)
	if mime == "" {
		return nil, fmt.Errorf("%w: unsupported document type %q", domain.ErrInvalidInput, filepath.Ext(path))
	}

	full := filepath.Join(dir, filepath.FromSlash(path))
	info, err := os.Stat(full)
	if err != nil {
		return nil, err
	}
	if info.Size() > s.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", domain.ErrInvalidInput, path, info.Size(), s.maxBytes)
	}

	var text string
	if mime == "application/pdf" {
		text, err = readPDF(full)
	} else {
		text, err = readText(full)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return &domain.Document{Path: path, MimeType: mime, Text: text}, nil
}

func readText(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(b) {
		return strings.ToValidUTF8(string(b), "�"), nil
	}
	return string(b), nil
}

// readPDF concatenates the plain text of every page
func readPDF(path string) (text string, err error) {
	// The PDF reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

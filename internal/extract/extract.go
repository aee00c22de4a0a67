// Package extract converts document files into plain text based on their extension.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned when no extractor handles the file extension.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrExtraction is returned when a file cannot be read or its content is malformed.
	ErrExtraction = errors.New("text extraction failed")
)

// DecodeFunc turns raw file bytes into plain text.
type DecodeFunc func(data []byte) (string, error)

// Extractor dispatches files to a decoder registered for their extension.
type Extractor struct {
	decoders map[string]DecodeFunc
}

// New creates an Extractor with the plain text, markdown, docx and pdf decoders registered.
func New() *Extractor {
	e := &Extractor{decoders: make(map[string]DecodeFunc)}
	e.Register(decodePlainText, ".txt")
	e.Register(decodeMarkdown, ".md", ".markdown")
	e.Register(decodeDOCX, ".docx")
	e.Register(decodePDF, ".pdf")
	return e
}

// Register associates a decoder with one or more extensions (with leading dot).
// A later registration for the same extension replaces the earlier one.
func (e *Extractor) Register(decode DecodeFunc, exts ...string) {
	for _, ext := range exts {
		e.decoders[strings.ToLower(ext)] = decode
	}
}

// Supports reports whether the file extension of path has a registered decoder.
func (e *Extractor) Supports(path string) bool {
	_, ok := e.decoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extensions returns the registered extensions in sorted order.
func (e *Extractor) Extensions() []string {
	exts := make([]string, 0, len(e.decoders))
	for ext := range e.decoders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract reads the file at path and returns its text content.
func (e *Extractor) Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := e.decoders[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read %s: %v", ErrExtraction, path, err)
	}

	text, err := decode(data)
	if err != nil {
		if errors.Is(err, ErrExtraction) {
			return "", err
		}
		return "", fmt.Errorf("%w: %s: %v", ErrExtraction, filepath.Base(path), err)
	}
	return text, nil
}

// Package upload validates the document a user selects for extraction.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

const (
	TypePDF  = "application/pdf"
	TypeJPEG = "image/jpeg"
	TypePNG  = "image/png"
	TypeWEBP = "image/webp"
)

// AllowedTypes is the set of content types accepted for upload.
var AllowedTypes = []string{TypePDF, TypeJPEG, TypePNG, TypeWEBP}

// ErrInvalidFileType is returned when a file is not a PDF, JPEG, PNG or WEBP.
// Its message is shown to the user as is.
var ErrInvalidFileType = errors.New("Invalid file type. Please upload PDF, JPG, PNG, or WEBP.")

// sniffLen is how many bytes http.DetectContentType inspects.
const sniffLen = 512

// File is a selected document ready to be submitted.
type File struct {
	Name        string `json:"name" yaml:"name"`
	Path        string `json:"path" yaml:"path"`
	Size        int64  `json:"size" yaml:"size"`
	ContentType string `json:"content_type" yaml:"content_type"`
	// Pages is the PDF page count, 0 for images or PDFs pdfcpu cannot read.
	Pages int `json:"pages,omitempty" yaml:"pages,omitempty"`
}

// IsAllowed reports whether contentType may be uploaded.
func IsAllowed(contentType string) bool {
	return slices.Contains(AllowedTypes, normalize(contentType))
}

// Select validates the file at path and returns it. The type comes from the
// extension and must agree with the file contents. This is a convenience
// check for the user, not a security boundary.
func Select(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	contentType := TypeForName(path)
	if !IsAllowed(contentType) {
		return nil, ErrInvalidFileType
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if sniffed := normalize(http.DetectContentType(head[:n])); sniffed != contentType {
		return nil, ErrInvalidFileType
	}

	sel := &File{
		Name:        filepath.Base(path),
		Path:        path,
		Size:        info.Size(),
		ContentType: contentType,
	}
	if contentType == TypePDF {
		if _, err := f.Seek(0, io.SeekStart); err == nil {
			sel.Pages = pageCount(f)
		}
	}
	return sel, nil
}

// TypeForName maps a file name to its content type by extension.
func TypeForName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".pdf":
		return TypePDF
	case ".jpg", ".jpeg":
		return TypeJPEG
	case ".png":
		return TypePNG
	case ".webp":
		return TypeWEBP
	}
	return normalize(mime.TypeByExtension(ext))
}

// Open opens the selected file for reading.
func (f *File) Open() (io.ReadCloser, error) {
	return os.Open(f.Path)
}

// SizeLabel formats the size in megabytes with two decimals.
func (f *File) SizeLabel() string {
	return fmt.Sprintf("%.2f MB", float64(f.Size)/1024/1024)
}

// Summary is a one-line description for the terminal.
func (f *File) Summary() string {
	if f.Pages > 0 {
		return fmt.Sprintf("%s (%s, %s, %d pages)", f.Name, f.ContentType, f.SizeLabel(), f.Pages)
	}
	return fmt.Sprintf("%s (%s, %s)", f.Name, f.ContentType, f.SizeLabel())
}

func pageCount(rs io.ReadSeeker) int {
	n, err := api.PageCount(rs, nil)
	if err != nil {
		return 0
	}
	return n
}

func normalize(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

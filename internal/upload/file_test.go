package upload

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpegHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
	webpHeader = []byte("RIFF\x24\x00\x00\x00WEBPVP8 ")
	pdfHeader  = []byte("%PDF-1.4\n%broken\n")
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		data     []byte
		wantType string
		wantErr  error
	}{
		{"png", "scan.png", pngHeader, TypePNG, nil},
		{"jpeg", "receipt.JPG", jpegHeader, TypeJPEG, nil},
		{"jpeg long extension", "receipt.jpeg", jpegHeader, TypeJPEG, nil},
		{"webp", "photo.webp", webpHeader, TypeWEBP, nil},
		{"pdf", "invoice.pdf", pdfHeader, TypePDF, nil},
		{"text file", "notes.txt", []byte("hello"), "", ErrInvalidFileType},
		{"renamed text", "fake.pdf", []byte("hello there"), "", ErrInvalidFileType},
		{"png named as jpeg", "scan.jpg", pngHeader, "", ErrInvalidFileType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.data)

			f, err := Select(path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Select() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			if f.ContentType != tt.wantType {
				t.Errorf("ContentType = %q, want %q", f.ContentType, tt.wantType)
			}
			if f.Name != tt.file {
				t.Errorf("Name = %q, want %q", f.Name, tt.file)
			}
			if f.Size != int64(len(tt.data)) {
				t.Errorf("Size = %d, want %d", f.Size, len(tt.data))
			}
		})
	}
}

func TestSelect_Errors(t *testing.T) {
	if _, err := Select(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("Select(missing) expected error")
	}
	if _, err := Select(t.TempDir()); err == nil {
		t.Error("Select(dir) expected error")
	}
}

func TestSelect_UnreadablePDFHasNoPages(t *testing.T) {
	f, err := Select(writeFile(t, "broken.pdf", pdfHeader))
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if f.Pages != 0 {
		t.Errorf("Pages = %d, want 0", f.Pages)
	}
}

func TestErrInvalidFileTypeMessage(t *testing.T) {
	want := "Invalid file type. Please upload PDF, JPG, PNG, or WEBP."
	if ErrInvalidFileType.Error() != want {
		t.Errorf("message = %q, want %q", ErrInvalidFileType.Error(), want)
	}
}

func TestIsAllowed(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"application/pdf", true},
		{"image/png", true},
		{"IMAGE/JPEG", true},
		{"image/webp; q=1", true},
		{"image/gif", false},
		{"text/plain", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsAllowed(tt.contentType); got != tt.want {
			t.Errorf("IsAllowed(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}

func TestSizeLabel(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0.00 MB"},
		{1024 * 1024, "1.00 MB"},
		{1536 * 1024, "1.50 MB"},
		{10 * 1024 * 1024, "10.00 MB"},
	}
	for _, tt := range tests {
		f := &File{Size: tt.size}
		if got := f.SizeLabel(); got != tt.want {
			t.Errorf("SizeLabel(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}

func TestOpen(t *testing.T) {
	f, err := Select(writeFile(t, "scan.png", pngHeader))
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	rc, err := f.Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	buf := make([]byte, 4)
	if _, err := rc.Read(buf); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(buf) != "\x89PNG" {
		t.Errorf("Read() = %q", buf)
	}
}

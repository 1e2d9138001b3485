package storage

import (
	"bytes"
	"errors"
	"testing"
)

// pngHeader is enough for content-type sniffing
var pngHeader = []byte("\x89PNG\r\n\x1a\n")

func pngPayload(size int) []byte {
	data := make([]byte, size)
	copy(data, pngHeader)
	return data
}

func TestValidateFileAcceptsPNG(t *testing.T) {
	data, mimeType, err := ValidateFile(bytes.NewReader(pngPayload(1024)), "avatar", 4096)
	if err != nil {
		t.Fatalf("valid png rejected: %v", err)
	}
	if mimeType != "image/png" {
		t.Fatalf("mime = %q, want image/png", mimeType)
	}
	if len(data) != 1024 {
		t.Fatalf("data length = %d", len(data))
	}
}

func TestValidateFileRejectsWrongType(t *testing.T) {
	_, _, err := ValidateFile(bytes.NewReader([]byte("just some text, not an image")), "avatar", 4096)
	if !errors.Is(err, ErrInvalidMimeType) {
		t.Fatalf("expected ErrInvalidMimeType, got %v", err)
	}
}

func TestValidateFileRejectsEmpty(t *testing.T) {
	_, _, err := ValidateFile(bytes.NewReader(nil), "avatar", 4096)
	if !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
}

func TestValidateFileRejectsOversized(t *testing.T) {
	_, _, err := ValidateFile(bytes.NewReader(pngPayload(5000)), "avatar", 4096)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestValidateFileClientHeaderIgnored(t *testing.T) {
	// JPEG magic bytes win regardless of what the client claims
	jpeg := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 64)...)
	_, mimeType, err := ValidateFile(bytes.NewReader(jpeg), "reference", 4096)
	if err != nil {
		t.Fatalf("valid jpeg rejected: %v", err)
	}
	if mimeType != "image/jpeg" {
		t.Fatalf("mime = %q, want image/jpeg", mimeType)
	}
}

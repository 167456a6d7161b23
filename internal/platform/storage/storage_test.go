package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeURL(t *testing.T) {
	cases := []struct{ in, want string }{
		{"gs://mcu-reports/reports/a.pdf", "https://storage.googleapis.com/mcu-reports/reports/a.pdf"},
		{"https://example.com/x.png", "https://example.com/x.png"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeURL(tc.in); got != tc.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseGSURI(t *testing.T) {
	bucket, key, ok := ParseGSURI("gs://mcu-reports/signatures/doc.png")
	if !ok || bucket != "mcu-reports" || key != "signatures/doc.png" {
		t.Errorf("unexpected parse result: %q %q %v", bucket, key, ok)
	}
	if _, _, ok := ParseGSURI("https://drive.google.com/file/d/abc"); ok {
		t.Error("expected non-gs reference to fail")
	}
	if _, _, ok := ParseGSURI("gs://bucketonly"); ok {
		t.Error("expected bucket-only reference to fail")
	}
}

func TestMemStore_UploadDownloadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "report.pdf")
	if err := os.WriteFile(src, []byte("%PDF-1.4 fake"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewMemStore("mcu-reports", "reports")
	url, err := store.Upload(context.Background(), src, "report.pdf")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://storage.googleapis.com/mcu-reports/reports/report.pdf" {
		t.Errorf("unexpected url %q", url)
	}

	local, err := store.Download(context.Background(), "mcu-reports", "reports/report.pdf", dir)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	data, err := os.ReadFile(local)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "%PDF-1.4 fake" {
		t.Errorf("round-trip mismatch: %q", data)
	}
}

func TestMemStore_DownloadMissing(t *testing.T) {
	store := NewMemStore("mcu-reports", "")
	_, err := store.Download(context.Background(), "mcu-reports", "nope.pdf", t.TempDir())
	if !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}
}

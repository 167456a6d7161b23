package assets

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestExtractDriveID(t *testing.T) {
	cases := []struct {
		ref  string
		want string
	}{
		{"https://drive.google.com/file/d/1AbC_d-9xyz/view?usp=sharing", "1AbC_d-9xyz"},
		{"https://drive.google.com/open?id=0Bz7qwerty", "0Bz7qwerty"},
		{"https://drive.google.com/uc?export=download&id=99_file-ID", "99_file-ID"},
		{"https://docs.google.com/document/d/DOCid123/edit", "DOCid123"},
	}
	for _, tc := range cases {
		got, err := ExtractDriveID(tc.ref)
		if err != nil {
			t.Errorf("ExtractDriveID(%q): %v", tc.ref, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ExtractDriveID(%q) = %q, want %q", tc.ref, got, tc.want)
		}
	}
}

func TestExtractDriveID_Invalid(t *testing.T) {
	_, err := ExtractDriveID("https://example.com/files/report.pdf")
	if !errors.Is(err, ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}
}

// testImage builds a white canvas with a dark rectangle of content.
func testImage(w, h int, content image.Rectangle) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	for y := content.Min.Y; y < content.Max.Y; y++ {
		for x := content.Min.X; x < content.Max.X; x++ {
			img.Set(x, y, color.RGBA{20, 20, 20, 255})
		}
	}
	return img
}

func TestAutocrop_TrimsUniformBorders(t *testing.T) {
	img := testImage(100, 80, image.Rect(25, 10, 75, 60))
	cropped := Autocrop(img)
	b := cropped.Bounds()
	if b.Dx() != 50 || b.Dy() != 50 {
		t.Errorf("expected 50x50 crop, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestAutocrop_AllBackground(t *testing.T) {
	img := testImage(40, 40, image.Rect(0, 0, 0, 0))
	cropped := Autocrop(img)
	b := cropped.Bounds()
	if b.Dx() != 40 || b.Dy() != 40 {
		t.Errorf("expected untouched image, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestBoundHeight(t *testing.T) {
	tall := testImage(500, 2160, image.Rect(0, 0, 500, 2160))
	bounded := BoundHeight(tall, MaxImageHeight)
	if got := bounded.Bounds().Dy(); got != MaxImageHeight {
		t.Errorf("expected height %d, got %d", MaxImageHeight, got)
	}
	// Aspect ratio preserved: 500/2160 * 1080 = 250.
	if got := bounded.Bounds().Dx(); got != 250 {
		t.Errorf("expected width 250, got %d", got)
	}

	small := testImage(100, 100, image.Rect(0, 0, 100, 100))
	if got := BoundHeight(small, MaxImageHeight); got != small {
		t.Error("expected small image to pass through unchanged")
	}
}

func TestResolve_DirectImageURL(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(64, 48, image.Rect(0, 0, 64, 48))); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua == "" || ua == "Go-http-client/1.1" {
			t.Errorf("expected browser-like user agent, got %q", ua)
		}
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	r := NewResolver(srv.Client(), nil, t.TempDir(), zerolog.Nop())
	asset, err := r.Resolve(context.Background(), srv.URL+"/scan.png")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if asset.Width != 64 || asset.Height != 48 {
		t.Errorf("expected 64x48, got %dx%d", asset.Width, asset.Height)
	}
	if len(asset.Temp) == 0 {
		t.Error("expected temp files to be tracked")
	}
}

func TestResolve_DownloadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	r := NewResolver(srv.Client(), nil, t.TempDir(), zerolog.Nop())
	_, err := r.Resolve(context.Background(), srv.URL+"/missing.png")
	if !errors.Is(err, ErrDownloadFailed) {
		t.Errorf("expected ErrDownloadFailed, got %v", err)
	}
}

func TestResolve_UnknownScheme(t *testing.T) {
	r := NewResolver(nil, nil, t.TempDir(), zerolog.Nop())
	_, err := r.Resolve(context.Background(), "ftp://example.com/x")
	if !errors.Is(err, ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}
}

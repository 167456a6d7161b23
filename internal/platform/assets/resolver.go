// Package assets materializes remote report assets (study scans, signature
// images, header/footer art) as local image files. Drive-share links are
// fetched and their first page rasterized; cloud-storage references are
// downloaded directly. Every file written here is temporary and must be
// registered by the caller for post-delivery cleanup.
package assets

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mcu/report/internal/platform/storage"
)

var (
	ErrInvalidReference = errors.New("unrecognized asset reference")
	ErrDownloadFailed   = errors.New("asset download failed")
	ErrEmptyDocument    = errors.New("document has no pages")
)

// MaxImageHeight bounds rasterized study images; wider-than-tall results are
// flagged landscape by the formatter.
const MaxImageHeight = 1080

// rasterDPI renders pages at 2x the PDF's native 72 DPI.
const rasterDPI = 144

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// The three accepted drive link shapes.
var drivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`),
}

// ExtractDriveID pulls the file identifier out of a drive share link. It
// returns ErrInvalidReference when no accepted shape matches.
func ExtractDriveID(ref string) (string, error) {
	for _, re := range drivePatterns {
		if m := re.FindStringSubmatch(ref); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidReference, ref)
}

// IsDriveLink reports whether ref points at a drive share.
func IsDriveLink(ref string) bool {
	return strings.Contains(ref, "drive.google.com") || strings.Contains(ref, "docs.google.com")
}

// Asset is a locally materialized image.
type Asset struct {
	Path   string
	Width  int
	Height int
	// Temp lists every file created while resolving, Path included.
	Temp []string
}

// Resolver fetches and normalizes remote assets. Safe for concurrent use;
// each call writes to collision-free temp filenames.
type Resolver struct {
	client *http.Client
	store  storage.ObjectStore
	tmpDir string
	logger zerolog.Logger
}

func NewResolver(client *http.Client, store storage.ObjectStore, tmpDir string, logger zerolog.Logger) *Resolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &Resolver{client: client, store: store, tmpDir: tmpDir, logger: logger}
}

// Resolve materializes ref as a local image file.
//
// Drive links are downloaded and, unless the payload is already an image,
// rasterized from their first page, auto-cropped, and bounded to
// MaxImageHeight. gs:// references are downloaded from object storage.
// Plain http(s) URLs are fetched directly.
func (r *Resolver) Resolve(ctx context.Context, ref string) (*Asset, error) {
	switch {
	case strings.HasPrefix(ref, "gs://"):
		return r.resolveStorage(ctx, ref)
	case IsDriveLink(ref):
		return r.resolveDrive(ctx, ref)
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		return r.resolveDirect(ctx, ref)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidReference, ref)
	}
}

func (r *Resolver) resolveStorage(ctx context.Context, ref string) (*Asset, error) {
	bucket, key, ok := storage.ParseGSURI(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidReference, ref)
	}
	local, err := r.store.Download(ctx, bucket, key, r.tmpDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	w, h := imageDims(local)
	return &Asset{Path: local, Width: w, Height: h, Temp: []string{local}}, nil
}

func (r *Resolver) resolveDrive(ctx context.Context, ref string) (*Asset, error) {
	id, err := ExtractDriveID(ref)
	if err != nil {
		return nil, err
	}
	url := "https://drive.google.com/uc?export=download&id=" + id
	raw, err := r.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	if isImageFile(raw) {
		w, h := imageDims(raw)
		return &Asset{Path: raw, Width: w, Height: h, Temp: []string{raw}}, nil
	}

	asset, err := r.rasterize(raw)
	if err != nil {
		return nil, err
	}
	asset.Temp = append(asset.Temp, raw)
	return asset, nil
}

func (r *Resolver) resolveDirect(ctx context.Context, ref string) (*Asset, error) {
	raw, err := r.fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	w, h := imageDims(raw)
	return &Asset{Path: raw, Width: w, Height: h, Temp: []string{raw}}, nil
}

// fetch downloads url to a unique temp file using a browser-like user agent;
// some drive endpoints refuse the default Go client string.
func (r *Resolver) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d from %s", ErrDownloadFailed, resp.StatusCode, url)
	}

	local := filepath.Join(r.tmpDir, "asset_"+uuid.New().String())
	f, err := os.Create(local)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(local)
		return "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	return local, nil
}

// rasterize renders the document's first page, trims uniform borders, bounds
// the height, and writes a compressed JPEG.
func (r *Resolver) rasterize(docPath string) (*Asset, error) {
	doc, err := fitz.New(docPath)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, ErrEmptyDocument
	}

	img, err := doc.ImageDPI(0, rasterDPI)
	if err != nil {
		return nil, fmt.Errorf("rasterize page: %w", err)
	}

	cropped := Autocrop(img)
	bounded := BoundHeight(cropped, MaxImageHeight)

	out := filepath.Join(r.tmpDir, "page_"+uuid.New().String()+".jpg")
	if err := imaging.Save(bounded, out, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}

	b := bounded.Bounds()
	r.logger.Debug().Str("path", out).Int("width", b.Dx()).Int("height", b.Dy()).Msg("rasterized document page")
	return &Asset{Path: out, Width: b.Dx(), Height: b.Dy(), Temp: []string{out}}, nil
}

// Autocrop trims margins whose color matches the top-left corner pixel,
// using a per-channel tolerance. The full image is returned when everything
// matches the background.
func Autocrop(img image.Image) image.Image {
	const tolerance = 12

	b := img.Bounds()
	bgR, bgG, bgB, _ := img.At(b.Min.X, b.Min.Y).RGBA()

	differs := func(x, y int) bool {
		r, g, bb, _ := img.At(x, y).RGBA()
		return absDiff(r>>8, bgR>>8) > tolerance ||
			absDiff(g>>8, bgG>>8) > tolerance ||
			absDiff(bb>>8, bgB>>8) > tolerance
	}

	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if differs(x, y) {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}

	if maxX < minX || maxY < minY {
		return img
	}
	return imaging.Crop(img, image.Rect(minX, minY, maxX+1, maxY+1))
}

// BoundHeight scales img down to maxHeight preserving aspect ratio. Images
// already within bounds are returned unchanged.
func BoundHeight(img image.Image, maxHeight int) image.Image {
	if img.Bounds().Dy() <= maxHeight {
		return img
	}
	return imaging.Resize(img, 0, maxHeight, imaging.Lanczos)
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

// imageDims decodes just the image header for dimensions; non-image files
// report zero.
func imageDims(path string) (int, int) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

// isImageFile sniffs the file's magic bytes.
func isImageFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, 512)
	n, _ := f.Read(head)
	ct := http.DetectContentType(head[:n])
	return strings.HasPrefix(ct, "image/")
}

// Package render turns the assembled report presentation into a PDF file.
// HTML is produced with html/template and printed through headless Chrome,
// so the report stylesheet behaves exactly as it does in a browser.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const printTimeout = 2 * time.Minute

// PDFRenderer renders template data to a PDF on disk.
type PDFRenderer struct {
	tpl        *template.Template
	chromePath string
	tmpDir     string
	logger     zerolog.Logger
}

// New parses the report template set from templateDir. chromePath may be
// empty to use the chromedp default browser discovery.
func New(templateDir, chromePath, tmpDir string, logger zerolog.Logger) (*PDFRenderer, error) {
	funcMap := template.FuncMap{
		"nl2br": func(s string) template.HTML {
			return template.HTML(strings.ReplaceAll(template.HTMLEscapeString(s), "\n", "<br>"))
		},
		// raw is for values the formatters have already sanitized, such as
		// conclusion text carrying <br> tags.
		"raw": func(s string) template.HTML {
			return template.HTML(s)
		},
	}
	tpl, err := template.New("report.html").Funcs(funcMap).ParseGlob(filepath.Join(templateDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &PDFRenderer{tpl: tpl, chromePath: chromePath, tmpDir: tmpDir, logger: logger}, nil
}

// Render executes the report template with data and prints the HTML to a PDF
// at outPath.
func (r *PDFRenderer) Render(ctx context.Context, data interface{}, outPath string) error {
	var buf bytes.Buffer
	if err := r.tpl.ExecuteTemplate(&buf, "report.html", data); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}

	htmlPath := filepath.Join(r.tmpDir, "report_"+uuid.New().String()+".html")
	if err := os.WriteFile(htmlPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write html: %w", err)
	}
	defer os.Remove(htmlPath)

	pdf, err := r.print(ctx, "file://"+htmlPath)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, pdf, 0o644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	r.logger.Info().Str("path", outPath).Int("bytes", len(pdf)).Msg("report rendered")
	return nil
}

func (r *PDFRenderer) print(ctx context.Context, url string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, printTimeout)
	defer cancelTimeout()

	var pdf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}
	return pdf, nil
}

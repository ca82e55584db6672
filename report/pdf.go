package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"flip-analyzer/models"
	"flip-analyzer/utils"
)

const renderTimeout = 60 * time.Second

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// PDFOptions configures headless Chrome rendering.
type PDFOptions struct {
	ChromeBin      string
	MaxConcurrency int
	MaxRetries     int
	// RateLimitMs spaces out page renders; 0 disables it.
	RateLimitMs    int
}

// PDFRenderer prints report pages to PDF through headless Chrome. One page
// is rendered per worker; a failed page is retried before giving up.
type PDFRenderer struct {
	opts   PDFOptions
	logger *utils.Logger
	retry  *utils.RetryConfig
}

func NewPDFRenderer(opts PDFOptions, logger *utils.Logger) *PDFRenderer {
	return &PDFRenderer{
		opts:   opts,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: opts.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

type pdfJob struct {
	name   string
	render func(*bytes.Buffer) error
}

// RenderAll writes report.pdf plus one detail_<mls>.pdf per selected
// listing into dir and returns the written paths.
func (r *PDFRenderer) RenderAll(ctx context.Context, a *models.Analysis, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("pdf: create output dir: %w", err)
	}

	jobs := []pdfJob{{
		name:   "report.pdf",
		render: func(buf *bytes.Buffer) error { return Render(buf, a) },
	}}
	for _, d := range a.Details {
		d := d
		jobs = append(jobs, pdfJob{
			name:   DetailFileName(d.Listing.ID),
			render: func(buf *bytes.Buffer) error { return RenderDetail(buf, a, d) },
		})
	}

	chromeBin := findChromeBinary(r.opts.ChromeBin)
	r.logger.Info("[pdf] Rendering %d pages with %s", len(jobs), chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	// Start the browser once so workers open tabs in it.
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, fmt.Errorf("pdf: start browser: %w", err)
	}

	pool := utils.NewWorkerPool(r.opts.MaxConcurrency, r.opts.RateLimitMs)
	var (
		mu       sync.Mutex
		written  []string
		firstErr error
	)

	for _, job := range jobs {
		job := job
		pool.Submit(func() {
			path := filepath.Join(dir, job.name)
			err := r.retry.Do(ctx, "render "+job.name, func() error {
				return r.renderOne(browserCtx, job, path)
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.logger.Error("[pdf] %v", err)
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			written = append(written, path)
		})
	}
	pool.Wait()

	r.logger.Info("[pdf] Wrote %d/%d pages to %s", len(written), len(jobs), dir)
	return written, firstErr
}

func (r *PDFRenderer) renderOne(browserCtx context.Context, job pdfJob, path string) error {
	var html bytes.Buffer
	if err := job.render(&html); err != nil {
		return err
	}

	tabCtx, cancel := chromedp.NewContext(browserCtx)
	defer cancel()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, renderTimeout)
	defer cancelTimeout()

	var pdf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html.String()).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return fmt.Errorf("pdf: print %s: %w", job.name, err)
	}

	if err := os.WriteFile(path, pdf, 0644); err != nil {
		return fmt.Errorf("pdf: write %s: %w", path, err)
	}
	return nil
}

// DetailFileName returns the PDF file name for one listing's detail page.
func DetailFileName(mls string) string {
	safe := unsafeFileChars.ReplaceAllString(mls, "_")
	if safe == "" || safe == "_" {
		safe = "unknown"
	}
	return "detail_" + safe + ".pdf"
}

// findChromeBinary prefers the configured path, then looks for a browser on
// PATH and in the usual install locations. "" lets chromedp pick its default.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	for _, name := range []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	for _, p := range []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

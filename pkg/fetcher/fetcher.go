package fetcher

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

type FetcherConfig struct {
	ListingURL string
	OutDir     string
	RateLimit  float64 // requests per second
	Timeout    time.Duration
	OnProgress func(name string)
}

// Fetcher downloads bill PDFs linked from a legislature listing page into
// a local directory.
type Fetcher struct {
	config   FetcherConfig
	client   *http.Client
	limiter  *rate.Limiter
	baseHost string
}

func NewWithConfig(config FetcherConfig) (*Fetcher, error) {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}

	parsedURL, err := url.Parse(config.ListingURL)
	if err != nil {
		return nil, err
	}

	return &Fetcher{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		limiter:  rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		baseHost: parsedURL.Host,
	}, nil
}

// shouldDownload keeps only same-host links that point at a PDF.
func (f *Fetcher) shouldDownload(urlStr string) bool {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	if parsedURL.Host != f.baseHost {
		return false
	}
	return strings.HasSuffix(strings.ToLower(parsedURL.Path), ".pdf")
}

// Fetch reads the listing page, collects its PDF links, and downloads each
// into OutDir at the configured rate. Files already present are skipped,
// and one failed download does not stop the rest. It returns the number of
// files downloaded.
func (f *Fetcher) Fetch(ctx context.Context) (int, error) {
	links, err := f.listPDFLinks(ctx)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(f.config.OutDir, 0o755); err != nil {
		return 0, err
	}

	downloaded := 0
	for _, link := range links {
		name := path.Base(link)
		dest := filepath.Join(f.config.OutDir, name)
		if _, err := os.Stat(dest); err == nil {
			continue
		}

		if err := f.limiter.Wait(ctx); err != nil {
			return downloaded, err
		}

		if err := f.download(ctx, link, dest); err != nil {
			log.Printf("failed to download %s: %v", name, err)
			continue
		}
		downloaded++

		if f.config.OnProgress != nil {
			f.config.OnProgress(name)
		}
	}

	return downloaded, nil
}

func (f *Fetcher) listPDFLinks(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.config.ListingURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing: %w", err)
	}

	base, err := url.Parse(f.config.ListingURL)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref).String()
		if !f.shouldDownload(abs) || seen[abs] {
			return
		}
		seen[abs] = true
		links = append(links, abs)
	})

	return links, nil
}

func (f *Fetcher) download(ctx context.Context, link, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}

	return out.Close()
}

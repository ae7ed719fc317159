package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcherConfig(t *testing.T) {
	config := FetcherConfig{
		ListingURL: "https://example.com/bills",
		OutDir:     "bills",
		RateLimit:  1.0,
	}

	f, err := NewWithConfig(config)
	require.NoError(t, err)
	assert.Equal(t, config.ListingURL, f.config.ListingURL)
	assert.Equal(t, "example.com", f.baseHost)
}

func TestShouldDownload(t *testing.T) {
	f, err := NewWithConfig(FetcherConfig{
		ListingURL: "https://example.com/bills",
	})
	require.NoError(t, err)

	tests := []struct {
		url      string
		expected bool
	}{
		{"https://example.com/Bills/2025R/Public/SB1.pdf", true},
		{"https://example.com/Bills/2025R/Public/HB1001.PDF", true},
		{"https://example.com/Bills/index.html", false},
		{"https://other-domain.com/SB1.pdf", false},
		{"://bad", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, f.shouldDownload(tt.url))
		})
	}
}

func TestFetchWithMockServer(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/bills", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`
			<html><body>
				<a href="/public/SB1.pdf">SB1</a>
				<a href="/public/SB2.pdf">SB2</a>
				<a href="/public/SB1.pdf">SB1 again</a>
				<a href="/public/index.html">Index</a>
			</body></html>
		`))
	})
	mux.HandleFunc("/public/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4 fake bill"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	outDir := t.TempDir()
	var fetched []string

	f, err := NewWithConfig(FetcherConfig{
		ListingURL: server.URL + "/bills",
		OutDir:     outDir,
		RateLimit:  100,
		OnProgress: func(name string) {
			fetched = append(fetched, name)
		},
	})
	require.NoError(t, err)

	n, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"SB1.pdf", "SB2.pdf"}, fetched)

	data, err := os.ReadFile(filepath.Join(outDir, "SB1.pdf"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "%PDF")

	// A second run finds everything already on disk.
	n, err = f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

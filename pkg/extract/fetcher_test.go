package extract

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/Sriram-PR/pair-scraper/pkg/config"
	"github.com/Sriram-PR/pair-scraper/pkg/fetch"
	"github.com/Sriram-PR/pair-scraper/pkg/models"
	"github.com/Sriram-PR/pair-scraper/pkg/utils"
)

func newTestPageFetcher(t *testing.T) *PageFetcher {
	t.Helper()
	cfg := &config.AppConfig{}
	_, err := cfg.Validate()
	require.NoError(t, err)
	f := fetch.NewFetcher(fetch.NewClient(cfg.HTTPClientSettings, testLogger()), cfg, testLogger())
	return NewPageFetcher(f, cfg, testLogger())
}

func TestPageFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, `<html><body><div id="mw-content-text">
<p><img src="/one.jpg">The first image caption, long enough</p>
<p><img src="/two.jpg">The second image caption, long enough</p>
</div></body></html>`)
	}))
	defer server.Close()

	target := models.SeedTarget{URL: server.URL + "/wiki/Page", Label: "custom"}
	result := newTestPageFetcher(t).Fetch(context.Background(), target)

	require.NoError(t, result.Err)
	assert.Equal(t, target, result.Target)
	require.Len(t, result.Pairs, 2)
	assert.Equal(t, server.URL+"/one.jpg", result.Pairs[0].ImageURL)
	assert.Equal(t, "The first image caption, long enough", result.Pairs[0].Text)
	assert.Equal(t, target.URL, result.Pairs[0].SourceURL)
	assert.Equal(t, server.URL+"/two.jpg", result.Pairs[1].ImageURL)
}

func TestPageFetcher_Fetch_NonOKIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	result := newTestPageFetcher(t).Fetch(context.Background(), models.SeedTarget{URL: server.URL})
	require.Error(t, result.Err)
	assert.True(t, errors.Is(result.Err, utils.ErrClientHTTPError))
	assert.Empty(t, result.Pairs)
}

func TestPageFetcher_Fetch_TransportErrorIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	result := newTestPageFetcher(t).Fetch(context.Background(), models.SeedTarget{URL: addr})
	require.Error(t, result.Err)
	assert.Empty(t, result.Pairs)
}

func TestPageFetcher_Fetch_DecodesDeclaredCharset(t *testing.T) {
	page := `<html><body><p><img src="/gbk.png">这是一段用国标编码的图片说明文字，长度足够</p></body></html>`
	encoded, err := simplifiedchinese.GBK.NewEncoder().String(page)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=gbk")
		io.WriteString(w, encoded)
	}))
	defer server.Close()

	result := newTestPageFetcher(t).Fetch(context.Background(), models.SeedTarget{URL: server.URL})
	require.NoError(t, result.Err)
	require.Len(t, result.Pairs, 1)
	assert.Equal(t, "这是一段用国标编码的图片说明文字，长度足够", result.Pairs[0].Text)
}

package clean

import (
	"context"
	"errors"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/pair-scraper/pkg/config"
	"github.com/Sriram-PR/pair-scraper/pkg/models"
	"github.com/Sriram-PR/pair-scraper/pkg/storage"
	"github.com/Sriram-PR/pair-scraper/pkg/utils"
)

type mockHasher struct {
	mock.Mock
}

func (m *mockHasher) Hash(ctx context.Context, url string) (string, error) {
	args := m.Called(ctx, url)
	return args.String(0), args.Error(1)
}

func newTestCleaner(t *testing.T, hasher ImageHasher) (*Cleaner, *storage.PairStore) {
	t.Helper()
	cfg := &config.AppConfig{}
	_, err := cfg.Validate()
	require.NoError(t, err)

	dir := t.TempDir()
	store := storage.NewPairStore(filepath.Join(dir, "scraped.jsonl"), filepath.Join(dir, "cleaned.jsonl"), testLogger())
	return NewCleaner(store, hasher, cfg, testLogger()), store
}

func writeScraped(t *testing.T, store *storage.PairStore, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(store.ScrapedPath(), []byte(strings.Join(lines, "\n")+"\n"), 0644))
}

func TestCleaner_Clean(t *testing.T) {
	hasher := &mockHasher{}
	cleaner, store := newTestCleaner(t, hasher)

	writeScraped(t, store,
		`{"image_url":"https://img.test/1.png","text":"<b>一只猫在睡觉</b>"}`,
		`{"image_url": broken`,
		`{"image_url":"https://img.test/2.png","text":"一只猫在睡觉"}`,
		`{"image_url":"","text":"某些文本内容"}`,
		`{"image_url":"https://img.test/3.png","text":"点击购买商品"}`,
		`{"image_url":"https://img.test/4.png","text":"短"}`,
		`{"image_url":"https://img.test/5.png","text":"一条狗在奔跑"}`,
		`{"image_url":"https://img.test/6.png","text":"一只鸟在飞翔"}`,
		`{"image_url":"https://img.test/7.png","text":"A Bird, Flying!"}`,
		`{"image_url":"https://img.test/8.png","text":"一条狗在奔跑"}`,
		`{"text": "<b>Ad</b> 点击 购买", "image_url": "http://x/1.png"}`,
	)

	hasher.On("Hash", mock.Anything, "https://img.test/1.png").Return("aaaaaaaaaaaaaaaa", nil)
	hasher.On("Hash", mock.Anything, "https://img.test/5.png").Return("aaaaaaaaaaaaaaaa", nil)
	hasher.On("Hash", mock.Anything, "https://img.test/6.png").Return("", utils.ErrImageRejected)
	hasher.On("Hash", mock.Anything, "https://img.test/7.png").Return("bbbbbbbbbbbbbbbb", nil)
	hasher.On("Hash", mock.Anything, "https://img.test/8.png").Return("cccccccccccccccc", nil)

	res, err := cleaner.Clean(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Valid: 3, Skipped: 7, Malformed: 1}, res)

	hasher.AssertExpectations(t)
	hasher.AssertNotCalled(t, "Hash", mock.Anything, "https://img.test/2.png")
	hasher.AssertNotCalled(t, "Hash", mock.Anything, "https://img.test/3.png")
	hasher.AssertNotCalled(t, "Hash", mock.Anything, "https://img.test/4.png")
	hasher.AssertNotCalled(t, "Hash", mock.Anything, "http://x/1.png")

	cleaned, err := store.ReadCleaned()
	require.NoError(t, err)
	assert.Equal(t, []models.CleanedPair{
		{Text: "一只猫在睡觉", ImageURL: "https://img.test/1.png"},
		{Text: "a bird, flying!", ImageURL: "https://img.test/7.png"},
		// Text seen only on a rejected pair is still available
		{Text: "一条狗在奔跑", ImageURL: "https://img.test/8.png"},
	}, cleaned)
}

func TestCleaner_MissingInput(t *testing.T) {
	hasher := &mockHasher{}
	cleaner, store := newTestCleaner(t, hasher)

	_, err := cleaner.Clean(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrNoInput))

	_, statErr := os.Stat(store.CleanedPath())
	assert.True(t, os.IsNotExist(statErr), "no output written without input")
}

func TestCleaner_ReplacesPreviousOutput(t *testing.T) {
	hasher := &mockHasher{}
	cleaner, store := newTestCleaner(t, hasher)

	require.NoError(t, store.WriteCleaned([]models.CleanedPair{{Text: "stale pair", ImageURL: "https://old.test/x.png"}}))
	writeScraped(t, store, `{"image_url":"https://img.test/1.png","text":"tiny"}`)

	res, err := cleaner.Clean(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 1}, res)

	cleaned, err := store.ReadCleaned()
	require.NoError(t, err)
	assert.Empty(t, cleaned)
}

func TestCleaner_CanceledDoesNotWrite(t *testing.T) {
	hasher := &mockHasher{}
	cleaner, store := newTestCleaner(t, hasher)
	writeScraped(t, store, `{"image_url":"https://img.test/1.png","text":"一只猫在睡觉"}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cleaner.Clean(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	hasher.AssertNotCalled(t, "Hash", mock.Anything, mock.Anything)

	_, statErr := os.Stat(store.CleanedPath())
	assert.True(t, os.IsNotExist(statErr))
}

// checker returns a w×h black and white checkerboard with square cells of side cell
func checker(w, h, cell int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{A: 255}
			if (x/cell+y/cell)%2 == 0 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestCleaner_Idempotent(t *testing.T) {
	gradientPNG := encodePNG(t, gradient(300, 200))
	checkerPNG := encodePNG(t, checker(240, 240, 30))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		switch r.URL.Path {
		case "/a.png", "/a-copy.png":
			w.Write(gradientPNG)
		case "/b.png":
			w.Write(checkerPNG)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cleaner, store := newTestCleaner(t, testHasher(t))
	writeScraped(t, store,
		`{"image_url":"`+server.URL+`/a.png","text":"一只猫在睡觉"}`,
		`{"image_url":"`+server.URL+`/a-copy.png","text":"另一只猫在睡觉"}`,
		`{"image_url":"`+server.URL+`/b.png","text":"棋盘 Pattern"}`,
		`{"image_url":"`+server.URL+`/gone.png","text":"图片已经不见了"}`,
	)

	first, err := cleaner.Clean(context.Background())
	require.NoError(t, err)
	firstBytes, err := os.ReadFile(store.CleanedPath())
	require.NoError(t, err)

	second, err := cleaner.Clean(context.Background())
	require.NoError(t, err)
	secondBytes, err := os.ReadFile(store.CleanedPath())
	require.NoError(t, err)

	assert.Equal(t, Result{Valid: 2, Skipped: 2}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, string(firstBytes), string(secondBytes))
	assert.Equal(t,
		`{"text":"一只猫在睡觉","image_url":"`+server.URL+`/a.png"}`+"\n"+
			`{"text":"棋盘 pattern","image_url":"`+server.URL+`/b.png"}`+"\n",
		string(firstBytes))
}

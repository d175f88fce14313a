package avatar

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/orgchart/pkg/cache"
	"github.com/matzehuels/orgchart/pkg/errors"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type pictureServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newPictureServer(t *testing.T) *pictureServer {
	t.Helper()
	wide := pngBytes(t, 300, 100, color.RGBA{R: 200, A: 255})
	ps := &pictureServer{}
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps.hits.Add(1)
		switch r.URL.Path {
		case "/ada.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(wide)
		case "/broken.png":
			w.Write([]byte("not an image"))
		case "/flaky.png":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ps.Close)
	return ps
}

func fastBackoff(t *testing.T) {
	t.Helper()
	saved := cache.Backoff
	cache.Backoff.Delay = time.Millisecond
	t.Cleanup(func() { cache.Backoff = saved })
}

func TestFetchCropsToSquare(t *testing.T) {
	srv := newPictureServer(t)
	f := NewFetcher(nil, WithSize(64))

	a, err := f.Fetch(context.Background(), srv.URL+"/ada.png")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 64), a.Image.Bounds())
	assert.True(t, strings.HasPrefix(a.DataURI(), "data:image/png;base64,"))

	decoded, err := png.Decode(bytes.NewReader(a.PNG))
	require.NoError(t, err)
	assert.Equal(t, 64, decoded.Bounds().Dx())
}

func TestFetchUsesCache(t *testing.T) {
	srv := newPictureServer(t)
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	f := NewFetcher(c, WithSize(32))
	ctx := context.Background()

	first, err := f.Fetch(ctx, srv.URL+"/ada.png")
	require.NoError(t, err)
	second, err := f.Fetch(ctx, srv.URL+"/ada.png")
	require.NoError(t, err)

	assert.Equal(t, int32(1), srv.hits.Load(), "second fetch served from cache")
	assert.Equal(t, first.PNG, second.PNG)

	// A different size is a different entry.
	_, err = NewFetcher(c, WithSize(48)).Fetch(ctx, srv.URL+"/ada.png")
	require.NoError(t, err)
	assert.Equal(t, int32(2), srv.hits.Load())
}

func TestFetchErrors(t *testing.T) {
	fastBackoff(t)
	srv := newPictureServer(t)
	f := NewFetcher(nil)
	ctx := context.Background()

	tests := []struct {
		name string
		url  string
		code errors.Code
	}{
		{"empty", "", errors.ErrCodeInvalidInput},
		{"missing", srv.URL + "/nobody.png", errors.ErrCodeNotFound},
		{"undecodable", srv.URL + "/broken.png", errors.ErrCodeInvalidFormat},
		{"server error", srv.URL + "/flaky.png", errors.ErrCodeNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Fetch(ctx, tt.url)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	fastBackoff(t)
	srv := newPictureServer(t)

	_, err := NewFetcher(nil).Fetch(context.Background(), srv.URL+"/flaky.png")
	require.Error(t, err)
	assert.Equal(t, int32(cache.Backoff.Attempts), srv.hits.Load())
}

func TestFetchAll(t *testing.T) {
	fastBackoff(t)
	srv := newPictureServer(t)
	f := NewFetcher(nil, WithSize(16), WithConcurrency(2))

	res, err := f.FetchAll(context.Background(), map[string]string{
		"1": srv.URL + "/ada.png",
		"2": srv.URL + "/ada.png",
		"3": srv.URL + "/nobody.png",
		"4": "",
	})
	require.NoError(t, err)

	assert.Len(t, res.Avatars, 2)
	assert.Equal(t, []string{"3"}, res.FailedIDs())
	assert.Len(t, res.Hrefs(), 2)
	assert.Len(t, res.Images(), 2)
	assert.NotContains(t, res.Hrefs(), "4", "people without a picture keep the flat fill")
}

func TestFetchAllCancelled(t *testing.T) {
	srv := newPictureServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFetcher(nil).FetchAll(ctx, map[string]string{"1": srv.URL + "/ada.png"})
	assert.ErrorIs(t, err, context.Canceled)
}

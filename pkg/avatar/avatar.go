// Package avatar downloads profile pictures and crops them to squares for
// the circular avatar fills of the chart.
//
// A [Fetcher] checks its [cache.Cache] first, downloads with retry on
// transient failures, decodes JPEG, PNG, GIF or WebP, crops the centre to
// a square with imaging.Fill and stores the cropped PNG. Each [Avatar]
// carries both the decoded image (for the PNG sink) and a data URI (for
// SVG patterns).
//
// A person whose picture cannot be fetched keeps the flat theme fill; the
// failure is reported but never stops rendering:
//
//	f := avatar.NewFetcher(c, avatar.WithSize(128))
//	res, err := f.FetchAll(ctx, roster.PictureURLs(records))
//	svg, _ := sink.RenderSVG(l, sink.WithAvatarHrefs(res.Hrefs()))
package avatar

import (
	"bytes"
	"context"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/orgchart/pkg/cache"
	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/observability"
)

// Defaults for a new Fetcher.
const (
	DefaultSize        = 128
	DefaultConcurrency = 8
	DefaultTTL         = 7 * 24 * time.Hour
	DefaultTimeout     = 10 * time.Second

	// maxBytes bounds a single download.
	maxBytes = 8 << 20
)

// Avatar is a cropped, square picture.
type Avatar struct {
	URL   string
	Image image.Image
	PNG   []byte
}

// DataURI returns the picture as a base64 PNG data URI.
func (a *Avatar) DataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(a.PNG)
}

// Fetcher downloads and crops avatars. It is safe for concurrent use.
type Fetcher struct {
	http        *http.Client
	cache       cache.Cache
	keyer       cache.Keyer
	size        int
	ttl         time.Duration
	concurrency int
	userAgent   string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithSize sets the edge length of cropped avatars in pixels.
func WithSize(px int) Option { return func(f *Fetcher) { f.size = px } }

// WithConcurrency limits parallel downloads in FetchAll.
func WithConcurrency(n int) Option { return func(f *Fetcher) { f.concurrency = n } }

// WithTTL sets how long cropped avatars stay cached.
func WithTTL(d time.Duration) Option { return func(f *Fetcher) { f.ttl = d } }

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option { return func(f *Fetcher) { f.http = c } }

// WithKeyer sets the cache keyer.
func WithKeyer(k cache.Keyer) Option { return func(f *Fetcher) { f.keyer = k } }

// WithUserAgent sets the User-Agent header of downloads.
func WithUserAgent(ua string) Option { return func(f *Fetcher) { f.userAgent = ua } }

// NewFetcher returns a Fetcher backed by c. A nil cache disables caching.
func NewFetcher(c cache.Cache, opts ...Option) *Fetcher {
	if c == nil {
		c = cache.NewNullCache()
	}
	f := &Fetcher{
		http:        &http.Client{Timeout: DefaultTimeout},
		cache:       c,
		keyer:       cache.NewDefaultKeyer(),
		size:        DefaultSize,
		ttl:         DefaultTTL,
		concurrency: DefaultConcurrency,
		userAgent:   "orgchart",
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.size <= 0 {
		f.size = DefaultSize
	}
	if f.concurrency <= 0 {
		f.concurrency = DefaultConcurrency
	}
	return f
}

// Fetch returns the cropped avatar at url. Unreachable pictures return
// NOT_FOUND or NETWORK_ERROR errors; undecodable ones INVALID_FORMAT.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Avatar, error) {
	if url == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty picture url")
	}

	key := f.keyer.AvatarKey(url, f.size)
	if data, ok, _ := f.cache.Get(ctx, key); ok {
		if img, err := imaging.Decode(bytes.NewReader(data)); err == nil {
			observability.Cache().OnCacheHit(ctx, "avatar")
			return &Avatar{URL: url, Image: img, PNG: data}, nil
		}
		_ = f.cache.Delete(ctx, key)
	}
	observability.Cache().OnCacheMiss(ctx, "avatar")

	var raw []byte
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		raw, err = f.download(ctx, url)
		return err
	})
	if err != nil {
		return nil, classify(url, err)
	}

	src, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode picture %s", url)
	}
	img := imaging.Fill(src, f.size, f.size, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode avatar %s", url)
	}
	if err := f.cache.Set(ctx, key, buf.Bytes(), f.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, "avatar", buf.Len())
	}
	return &Avatar{URL: url, Image: img, PNG: buf.Bytes()}, nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "image/*")

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()
	resp, err := f.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	if len(data) > maxBytes {
		return nil, fmt.Errorf("picture larger than %d bytes", maxBytes)
	}
	return data, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return cache.ErrNotFound
	case code == http.StatusTooManyRequests || code >= 500:
		return cache.Retryable(fmt.Errorf("%w: status %d", cache.ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", cache.ErrNetwork, code)
	}
}

func classify(url string, err error) error {
	switch {
	case stderrors.Is(err, cache.ErrNotFound):
		return errors.Wrap(errors.ErrCodeNotFound, err, "picture %s", url)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(errors.ErrCodeTimeout, err, "picture %s", url)
	}
	return errors.Wrap(errors.ErrCodeNetwork, err, "picture %s", url)
}

// Result collects the outcome of FetchAll, keyed by person id.
type Result struct {
	Avatars map[string]*Avatar
	Failed  map[string]error
}

// Hrefs returns the data URI of every fetched avatar.
func (r Result) Hrefs() map[string]string {
	out := make(map[string]string, len(r.Avatars))
	for id, a := range r.Avatars {
		out[id] = a.DataURI()
	}
	return out
}

// Images returns the decoded image of every fetched avatar.
func (r Result) Images() map[string]image.Image {
	out := make(map[string]image.Image, len(r.Avatars))
	for id, a := range r.Avatars {
		out[id] = a.Image
	}
	return out
}

// FailedIDs returns the ids whose picture could not be fetched, sorted.
func (r Result) FailedIDs() []string {
	ids := make([]string, 0, len(r.Failed))
	for id := range r.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FetchAll fetches urls (person id to picture URL) concurrently. Failures
// are collected in Result.Failed; FetchAll itself only fails when ctx is
// cancelled.
func (f *Fetcher) FetchAll(ctx context.Context, urls map[string]string) (Result, error) {
	res := Result{
		Avatars: make(map[string]*Avatar, len(urls)),
		Failed:  make(map[string]error),
	}
	type outcome struct {
		id  string
		a   *Avatar
		err error
	}
	out := make(chan outcome, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for id, url := range urls {
		if url == "" {
			continue
		}
		g.Go(func() error {
			a, err := f.Fetch(gctx, url)
			out <- outcome{id: id, a: a, err: err}
			return nil
		})
	}
	_ = g.Wait()
	close(out)

	for o := range out {
		if o.err != nil {
			res.Failed[o.id] = o.err
			continue
		}
		res.Avatars[o.id] = o.a
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

package swcache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// maxCachedBody caps the size of a response the worker will store.
const maxCachedBody = 10 << 20

// CacheHeader is set on responses served from the cache.
const CacheHeader = "X-Mealauth-Cache"

var _ http.RoundTripper = (*Worker)(nil)

// Worker applies the caching policy to every request it carries.
type Worker struct {
	version string
	base    string
	storage Storage
	next    http.RoundTripper
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewWorker returns a worker whose live cache is named version. A nil next
// uses http.DefaultTransport.
func NewWorker(version string, storage Storage, next http.RoundTripper, log logrus.FieldLogger) *Worker {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Worker{
		version: version,
		storage: storage,
		next:    next,
		log:     log.WithField("component", "swcache"),
		now:     time.Now,
	}
}

// WithBase returns a copy of w that classifies requests relative to the
// backend mount path base.
func (w *Worker) WithBase(base string) *Worker {
	c := *w
	c.base = base
	return &c
}

// Version returns the live cache name.
func (w *Worker) Version() string { return w.version }

// Activate deletes every cache that does not belong to the current version.
// Bumping the version on deploy is what evicts stale assets.
func (w *Worker) Activate(ctx context.Context) error {
	names, err := w.storage.Names(ctx)
	if err != nil {
		return fmt.Errorf("swcache.Activate: %w", err)
	}
	for _, name := range names {
		if name == w.version {
			continue
		}
		if err := w.storage.Delete(ctx, name); err != nil {
			return fmt.Errorf("swcache.Activate: %w", err)
		}
		w.log.WithField("cache", name).Info("deleted stale cache")
	}
	if _, err := w.storage.Open(ctx, w.version); err != nil {
		return fmt.Errorf("swcache.Activate: %w", err)
	}
	return nil
}

// RoundTrip implements http.RoundTripper.
func (w *Worker) RoundTrip(req *http.Request) (*http.Response, error) {
	strategy := Classify(req, w.base)
	if strategy == Bypass || req.Method != http.MethodGet {
		return w.next.RoundTrip(req)
	}

	ctx := req.Context()
	cache, err := w.storage.Open(ctx, w.version)
	if err != nil {
		w.log.WithError(err).Warn("cache unavailable, going to network")
		return w.next.RoundTrip(req)
	}
	key := req.URL.String()

	switch strategy {
	case NetworkFirst:
		resp, netErr := w.next.RoundTrip(req)
		if netErr == nil {
			return w.store(ctx, cache, key, resp), nil
		}
		if e, ok, _ := cache.Match(ctx, key); ok {
			w.log.WithField("url", key).WithError(netErr).Debug("offline, serving cached copy")
			return fromEntry(req, e), nil
		}
		return nil, netErr

	default: // CacheFirst
		if e, ok, _ := cache.Match(ctx, key); ok {
			return fromEntry(req, e), nil
		}
		resp, netErr := w.next.RoundTrip(req)
		if netErr != nil {
			return nil, netErr
		}
		return w.store(ctx, cache, key, resp), nil
	}
}

// store saves a 200 response and returns an equivalent response with a
// re-readable body. Other responses pass through untouched.
func (w *Worker) store(ctx context.Context, cache Cache, key string, resp *http.Response) *http.Response {
	if resp.StatusCode != http.StatusOK || resp.ContentLength > maxCachedBody {
		return resp
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCachedBody+1))
	resp.Body.Close() //nolint:errcheck
	if err != nil {
		resp.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), errReader{err}))
		return resp
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if len(body) > maxCachedBody {
		return resp
	}
	e := &Entry{Status: resp.StatusCode, Header: resp.Header.Clone(), Body: body, StoredAt: w.now()}
	if err := cache.Put(ctx, key, e); err != nil {
		w.log.WithError(err).WithField("url", key).Warn("cache put failed")
	}
	return resp
}

func fromEntry(req *http.Request, e *Entry) *http.Response {
	h := e.Header.Clone()
	if h == nil {
		h = make(http.Header)
	}
	h.Set(CacheHeader, "hit")
	h.Set("Content-Length", strconv.Itoa(len(e.Body)))
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status)),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

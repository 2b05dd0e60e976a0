package swcache

import (
	"encoding/json"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// NewProxy returns a handler that serves the web client from backend through
// the worker, so a kiosk browser pointed at it keeps its shell offline.
func NewProxy(backend *url.URL, w *Worker, log logrus.FieldLogger) http.Handler {
	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(backend)
			pr.SetXForwarded()
		},
		Transport: w,
		ErrorHandler: func(rw http.ResponseWriter, r *http.Request, err error) {
			log.WithError(err).WithField("path", r.URL.Path).Warn("upstream unreachable")
			http.Error(rw, "upstream unreachable", http.StatusBadGateway)
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Get("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		json.NewEncoder(rw).Encode(map[string]any{ //nolint:errcheck
			"status":        "ok",
			"cache_version": w.Version(),
		})
	})
	r.Handle("/*", rp)
	return r
}

func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(rw, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"strategy":   Classify(r, "").String(),
				"request_id": middleware.GetReqID(r.Context()),
				"elapsed":    time.Since(start),
			}).Debug("proxied")
		})
	}
}

// Package swcache is the kiosk's network boundary: a per-request caching
// policy applied as an http.RoundTripper, plus versioned cache storage.
package swcache

import (
	"net/http"
	"strings"
)

// Strategy is how one request is served.
type Strategy int

const (
	// Bypass always goes to the network and never touches the cache.
	Bypass Strategy = iota
	// NetworkFirst uses the network and falls back to the cache only when
	// the network fails.
	NetworkFirst
	// CacheFirst serves a cached copy when there is one.
	CacheFirst
)

func (s Strategy) String() string {
	switch s {
	case Bypass:
		return "bypass"
	case NetworkFirst:
		return "network-first"
	case CacheFirst:
		return "cache-first"
	}
	return "unknown"
}

// APIPrefix marks backend API paths, which are never cached.
const APIPrefix = "/api/"

// Classify picks the strategy for r. base is the path the backend is mounted
// under ("" or "/meal"); the request path is matched relative to it.
func Classify(r *http.Request, base string) Strategy {
	path := relativePath(r.URL.Path, base)
	if strings.HasPrefix(path, APIPrefix) {
		return Bypass
	}
	if isNavigation(r) || isAppShell(path) {
		return NetworkFirst
	}
	return CacheFirst
}

func relativePath(path, base string) string {
	base = strings.TrimRight(base, "/")
	if base == "" {
		return path
	}
	if path == base {
		return "/"
	}
	if rest, ok := strings.CutPrefix(path, base); ok && strings.HasPrefix(rest, "/") {
		return rest
	}
	return path
}

func isNavigation(r *http.Request) bool {
	if r.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html")
}

// isAppShell matches the root document, the app script and the worker script.
func isAppShell(path string) bool {
	return path == "/" || path == "/index.html" ||
		strings.Contains(path, "app.js") || strings.Contains(path, "sw.js")
}

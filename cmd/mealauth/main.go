package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/mealauth/mealauth/internal/browser"
	"github.com/mealauth/mealauth/internal/config"
	"github.com/mealauth/mealauth/internal/logging"
	"github.com/mealauth/mealauth/internal/scanner"
	"github.com/mealauth/mealauth/internal/session"
	"github.com/mealauth/mealauth/internal/swcache"
	"github.com/mealauth/mealauth/internal/tui"
	"github.com/mealauth/mealauth/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// simulatedDelay is how long the simulated reader "looks" before decoding.
const simulatedDelay = 2 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd := ""
	if len(args) > 0 {
		cmd = args[0]
	}
	switch cmd {
	case "--version", "version", "-v":
		fmt.Println("mealauth " + version)
		return nil
	case "help", "--help", "-h":
		printHelp()
		return nil
	}

	cfg, err := config.FromEnvironment()
	if err != nil {
		return err
	}
	ctx := context.Background()

	switch cmd {
	case "":
		return runKiosk(ctx, cfg)
	case "status":
		return runStatus(ctx, cfg)
	case "logout":
		return runLogout(ctx, cfg)
	case "admin":
		return runAdmin(cfg)
	case "serve":
		return runServe(cfg)
	default:
		return fmt.Errorf("unknown command %q (try: mealauth help)", cmd)
	}
}

// openStore opens the configured session store backend.
func openStore(ctx context.Context, cfg config.StoreConfig, log logrus.FieldLogger) (session.Store, error) {
	switch cfg.Backend {
	case "file":
		return session.NewFileStore(cfg.Path, log), nil
	case "sqlite":
		s, err := session.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "redis":
		s := session.NewRedisStore(session.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err := s.Ping(ctx); err != nil {
			s.Close() //nolint:errcheck
			return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		return s, nil
	case "memory":
		return session.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Backend)
	}
}

// openWorker builds and activates the caching transport for a backend mounted
// at base. The returned closer releases the cache storage.
func openWorker(ctx context.Context, cfg config.CacheConfig, base string, log logrus.FieldLogger) (*swcache.Worker, io.Closer, error) {
	var (
		storage swcache.Storage
		closer  io.Closer = io.NopCloser(nil)
	)
	switch cfg.Backend {
	case "memory":
		storage = swcache.NewMemoryStorage()
	case "sqlite":
		s, err := swcache.NewSQLiteStorage(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		storage, closer = s, s
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
	w := swcache.NewWorker(cfg.Version, storage, nil, log).WithBase(base)
	if err := w.Activate(ctx); err != nil {
		closer.Close() //nolint:errcheck
		return nil, nil, err
	}
	return w, closer, nil
}

// scannerFactory returns the lazy constructor the kiosk uses on first scan.
func scannerFactory(cfg config.ScannerConfig) func() *scanner.Adapter {
	scfg := scanner.Config{
		FPS:       cfg.FPS,
		BoxWidth:  cfg.Box,
		BoxHeight: cfg.Box,
		Facing:    cfg.Facing,
	}
	return func() *scanner.Adapter {
		var dec scanner.Decoder
		if cfg.Device == config.SimulateDevice {
			dec = scanner.NewSimulatedDecoder(simulatedDelay)
		} else {
			dec = scanner.NewDeviceDecoder(cfg.Device)
		}
		return scanner.NewAdapter(dec, scfg)
	}
}

// basePath is the path component of the backend URL, "" when it has none.
func basePath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Path
}

func newClient(cfg *config.Config, rt http.RoundTripper) *client.Client {
	return client.New(cfg.APIURL, "", client.WithTransport(rt), client.WithTimeout(cfg.RequestTimeout))
}

func runKiosk(ctx context.Context, cfg *config.Config) error {
	log, logFile, err := logging.New(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logFile.Close() //nolint:errcheck

	store, err := openStore(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	worker, cache, err := openWorker(ctx, cfg.Cache, basePath(cfg.APIURL), log)
	if err != nil {
		return err
	}
	defer cache.Close() //nolint:errcheck

	log.WithFields(logrus.Fields{
		"version": version,
		"api":     cfg.APIURL,
		"store":   cfg.Store.Backend,
		"device":  cfg.Scanner.Device,
	}).Info("kiosk starting")

	app := tui.NewApp(tui.Deps{
		Client:   newClient(cfg, worker),
		Store:    store,
		Scanner:  scannerFactory(cfg.Scanner),
		Log:      log,
		AdminURL: cfg.AdminURL,
		Version:  version,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithReportFocus())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func runStatus(ctx context.Context, cfg *config.Config) error {
	log, err := logging.NewWriter(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}
	store, err := openStore(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck
	c := newClient(cfg, http.DefaultTransport)
	return printStatus(ctx, os.Stdout, store, c)
}

// printStatus reports the stored pairing and whether the backend still accepts it.
func printStatus(ctx context.Context, out io.Writer, store session.Store, c *client.Client) error {
	sess, err := session.Load(ctx, store)
	if err != nil {
		return err
	}
	if !sess.HasToken() {
		fmt.Fprintln(out, "기기 인증 정보가 없습니다. (mealauth 실행 후 기기 인증)")
		return nil
	}
	if sess.User != nil {
		fmt.Fprintf(out, "사용자: %s (사번 %s)\n", sess.User.Summary(), sess.User.EmpNo)
	}
	if !sess.LastAuthAt.IsZero() {
		fmt.Fprintf(out, "최근 인증: %s\n", sess.LastAuthAt.Format("2006-01-02 15:04:05"))
	}
	if err := c.WithToken(sess.Token).CheckStatus(ctx); err != nil {
		if client.IsUnauthorized(err) {
			fmt.Fprintln(out, "상태: 만료됨 (다시 기기 인증이 필요합니다)")
			return nil
		}
		return fmt.Errorf("status check: %w", err)
	}
	fmt.Fprintln(out, "상태: 유효")
	return nil
}

func runLogout(ctx context.Context, cfg *config.Config) error {
	log, err := logging.NewWriter(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}
	store, err := openStore(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck
	return logout(ctx, os.Stdout, store)
}

// logout clears the stored pairing. A session that cannot be read is cleared too.
func logout(ctx context.Context, out io.Writer, store session.Store) error {
	sess, err := session.Load(ctx, store)
	if err == nil && !sess.HasToken() {
		fmt.Fprintln(out, "Already logged out.")
		return nil
	}
	if err := session.Clear(ctx, store); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	fmt.Fprintln(out, "Logged out.")
	return nil
}

func runAdmin(cfg *config.Config) error {
	if err := browser.Open(cfg.AdminURL); err != nil {
		fmt.Println(cfg.AdminURL)
	}
	return nil
}

func runServe(cfg *config.Config) error {
	log, err := logging.NewWriter(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}
	backend, err := url.Parse(cfg.APIURL)
	if err != nil {
		return fmt.Errorf("api url: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	worker, cache, err := openWorker(ctx, cfg.Cache, backend.Path, log)
	if err != nil {
		return err
	}
	defer cache.Close() //nolint:errcheck

	srv := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           swcache.NewProxy(backend, worker, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":          cfg.Serve.Addr,
			"backend":       backend.String(),
			"cache_version": worker.Version(),
		}).Info("serving")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutCtx)
}

// Package scanner adapts a continuous QR-decode capability for the kiosk.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	// ErrCameraUnavailable means the decode source could not be opened.
	ErrCameraUnavailable = errors.New("scanner: camera unavailable")
	// ErrNoCode is reported per frame when nothing was decoded.
	ErrNoCode = errors.New("scanner: no code in frame")
	// ErrAlreadyScanning is returned by Start while a scan is running.
	ErrAlreadyScanning = errors.New("scanner: already scanning")
)

// Config is the decode loop configuration.
type Config struct {
	FPS       int
	BoxWidth  int
	BoxHeight int
	Facing    string // "environment" selects the rear camera when there is one
}

// DefaultConfig returns 10 fps with a 250x250 detection box on the rear camera.
func DefaultConfig() Config {
	return Config{FPS: 10, BoxWidth: 250, BoxHeight: 250, Facing: "environment"}
}

// Decoder is a continuous decode loop. onSuccess runs for every decoded
// payload and onFailure for every frame without one. Once Stop returns no
// callback may run.
type Decoder interface {
	Start(ctx context.Context, cfg Config, onSuccess func(string), onFailure func(error)) error
	Stop() error
	Scanning() bool
}

// Adapter owns a Decoder for the scanner page: one-shot success, per-frame
// misses swallowed, idempotent stop.
type Adapter struct {
	mu     sync.Mutex
	dec    Decoder
	cfg    Config
	misses atomic.Int64
}

// NewAdapter wraps dec. A zero FPS in cfg falls back to DefaultConfig.
func NewAdapter(dec Decoder, cfg Config) *Adapter {
	if cfg.FPS <= 0 {
		cfg = DefaultConfig()
	}
	return &Adapter{dec: dec, cfg: cfg}
}

// Start begins decoding. onDecoded runs at most once per Start.
func (a *Adapter) Start(ctx context.Context, onDecoded func(string)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dec.Scanning() {
		return ErrAlreadyScanning
	}
	var once sync.Once
	success := func(payload string) {
		once.Do(func() { onDecoded(payload) })
	}
	failure := func(error) {
		a.misses.Add(1)
	}
	if err := a.dec.Start(ctx, a.cfg, success, failure); err != nil {
		return fmt.Errorf("scanner.Start: %w", err)
	}
	return nil
}

// Stop halts decoding if a scan is running. Calling it again is a no-op.
func (a *Adapter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.dec.Scanning() {
		return nil
	}
	if err := a.dec.Stop(); err != nil {
		return fmt.Errorf("scanner.Stop: %w", err)
	}
	return nil
}

// Scanning reports whether the decode loop is running.
func (a *Adapter) Scanning() bool {
	return a.dec.Scanning()
}

// Misses returns how many frames have come back without a code.
func (a *Adapter) Misses() int64 {
	return a.misses.Load()
}

package scanner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// LineDecoder reads payloads from a line-oriented source. Hardware QR
// readers in serial or HID keyboard mode emit one decoded code per line.
type LineDecoder struct {
	open func() (io.ReadCloser, error)

	mu       sync.Mutex
	cancel   context.CancelFunc
	src      io.ReadCloser
	done     chan struct{}
	scanning atomic.Bool
}

// NewDeviceDecoder reads from the device (or FIFO) at path, opened on each Start.
func NewDeviceDecoder(path string) *LineDecoder {
	return &LineDecoder{open: func() (io.ReadCloser, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
		}
		return f, nil
	}}
}

// NewReaderDecoder reads from rc. It can be started only once; Stop closes rc.
func NewReaderDecoder(rc io.ReadCloser) *LineDecoder {
	var used atomic.Bool
	return &LineDecoder{open: func() (io.ReadCloser, error) {
		if used.Swap(true) {
			return nil, fmt.Errorf("%w: reader already consumed", ErrCameraUnavailable)
		}
		return rc, nil
	}}
}

func (d *LineDecoder) Start(ctx context.Context, cfg Config, onSuccess func(string), onFailure func(error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.scanning.Load() {
		return ErrAlreadyScanning
	}
	d.release() //nolint:errcheck // previous run already ended
	src, err := d.open()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.src = src
	d.done = make(chan struct{})
	d.scanning.Store(true)

	interval := time.Second / 10
	if cfg.FPS > 0 {
		interval = time.Second / time.Duration(cfg.FPS)
	}
	go d.run(ctx, src, interval, onSuccess, onFailure)
	return nil
}

func (d *LineDecoder) run(ctx context.Context, src io.Reader, interval time.Duration, onSuccess func(string), onFailure func(error)) {
	defer close(d.done)
	defer d.scanning.Store(false)

	sc := bufio.NewScanner(src)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		if line := strings.TrimSpace(sc.Text()); line != "" {
			onSuccess(line)
		} else {
			onFailure(ErrNoCode)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		onFailure(err)
	}
}

// Stop cancels the loop, closes the source and waits for the loop to exit.
func (d *LineDecoder) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.release()
}

// release tears down the previous run, which may have ended on its own at EOF.
func (d *LineDecoder) release() error {
	if d.cancel == nil {
		return nil
	}
	d.cancel()
	err := d.src.Close()
	<-d.done
	d.cancel = nil
	d.src = nil
	return err
}

func (d *LineDecoder) Scanning() bool {
	return d.scanning.Load()
}

package scanner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// SimulatedPayload is what SimulatedDecoder emits.
const SimulatedPayload = "SIMULATED_QR_DATA"

// SimulatedDecoder "decodes" a fixed payload after a delay. It stands in for
// a camera on kiosks without a reader attached.
type SimulatedDecoder struct {
	Delay time.Duration

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	scanning atomic.Bool
}

// NewSimulatedDecoder returns a decoder that emits SimulatedPayload after delay.
func NewSimulatedDecoder(delay time.Duration) *SimulatedDecoder {
	return &SimulatedDecoder{Delay: delay}
}

func (d *SimulatedDecoder) Start(ctx context.Context, _ Config, onSuccess func(string), _ func(error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.scanning.Load() {
		return ErrAlreadyScanning
	}
	d.release()
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.scanning.Store(true)
	go func() {
		defer close(d.done)
		defer d.scanning.Store(false)
		select {
		case <-ctx.Done():
		case <-time.After(d.Delay):
			onSuccess(SimulatedPayload)
		}
	}()
	return nil
}

func (d *SimulatedDecoder) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.release()
	return nil
}

func (d *SimulatedDecoder) release() {
	if d.cancel == nil {
		return
	}
	d.cancel()
	<-d.done
	d.cancel = nil
}

func (d *SimulatedDecoder) Scanning() bool {
	return d.scanning.Load()
}

package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/p-arndt/driverpool/internal/capabilities"
)

// ErrQuitRefused is returned by drivers built with a broken quit.
var ErrQuitRefused = errors.New("I don't want to quit")

// FakeDriver is an in-process stand-in for a browser session. It starts
// active and becomes inactive on a successful Quit or on Kill.
type FakeDriver struct {
	Caps capabilities.Capabilities

	mu       sync.Mutex
	active   bool
	quits    int
	quitErr  error
	aliveErr error
}

func NewFakeDriver(caps capabilities.Capabilities) *FakeDriver {
	return &FakeDriver{Caps: caps, active: true}
}

func (d *FakeDriver) IsAlive(ctx context.Context) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.aliveErr != nil {
		return false, d.aliveErr
	}
	return d.active, nil
}

func (d *FakeDriver) Quit(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.quits++
	if d.quitErr != nil {
		return d.quitErr
	}
	d.active = false
	return nil
}

// IsActive reports the session state without going through IsAlive.
func (d *FakeDriver) IsActive() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Kill ends the session behind the pool's back.
func (d *FakeDriver) Kill() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = false
}

func (d *FakeDriver) QuitCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quits
}

func (d *FakeDriver) SetQuitErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.quitErr = err
}

func (d *FakeDriver) SetAliveErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.aliveErr = err
}

// FakeFactory builds FakeDrivers and remembers them in creation order.
type FakeFactory struct {
	mu      sync.Mutex
	created []*FakeDriver
	err     error
	broken  bool
}

// NewBrokenFakeFactory returns a factory whose drivers refuse to quit.
func NewBrokenFakeFactory() *FakeFactory {
	return &FakeFactory{broken: true}
}

func (f *FakeFactory) New(ctx context.Context, caps capabilities.Capabilities) (*FakeDriver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	d := NewFakeDriver(caps)
	if f.broken {
		d.quitErr = ErrQuitRefused
	}
	f.created = append(f.created, d)
	return d, nil
}

func (f *FakeFactory) SetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *FakeFactory) Created() []*FakeDriver {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeDriver(nil), f.created...)
}

func (f *FakeFactory) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

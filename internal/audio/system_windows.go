//go:build windows

package audio

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	ole "github.com/go-ole/go-ole"
	"github.com/moutend/go-wca/pkg/wca"
)

var errEndpointClosed = errors.New("core audio endpoint closed")

func newSystemMixer(timeout time.Duration) (SystemMixer, error) {
	ep, err := openCoreAudio(timeout)
	if err != nil {
		return nil, err
	}
	return NewEndpointMixer("core-audio", ep), nil
}

// coreAudioEndpoint drives the default render device through
// IAudioEndpointVolume. COM objects are bound to the thread that created
// them, so every call is executed by one goroutine locked to its OS thread.
type coreAudioEndpoint struct {
	timeout time.Duration
	calls   chan func(*wca.IAudioEndpointVolume)
	quit    chan struct{}
	done    chan struct{}

	closeOnce sync.Once
}

func openCoreAudio(timeout time.Duration) (*coreAudioEndpoint, error) {
	e := &coreAudioEndpoint{
		timeout: timeout,
		calls:   make(chan func(*wca.IAudioEndpointVolume)),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	ready := make(chan error, 1)
	go e.serve(ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return e, nil
}

func (e *coreAudioEndpoint) serve(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(e.done)

	aev, release, err := activateEndpointVolume()
	ready <- err
	if err != nil {
		return
	}
	defer release()

	for {
		select {
		case call := <-e.calls:
			call(aev)
		case <-e.quit:
			return
		}
	}
}

func activateEndpointVolume() (*wca.IAudioEndpointVolume, func(), error) {
	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		return nil, nil, fmt.Errorf("initialize COM: %w", err)
	}
	ok := false
	defer func() {
		if !ok {
			ole.CoUninitialize()
		}
	}()

	var mmde *wca.IMMDeviceEnumerator
	if err := wca.CoCreateInstance(wca.CLSID_MMDeviceEnumerator, 0, wca.CLSCTX_ALL, wca.IID_IMMDeviceEnumerator, &mmde); err != nil {
		return nil, nil, fmt.Errorf("create device enumerator: %w", err)
	}
	defer mmde.Release()

	var mmd *wca.IMMDevice
	if err := mmde.GetDefaultAudioEndpoint(wca.ERender, wca.EConsole, &mmd); err != nil {
		return nil, nil, fmt.Errorf("default output device: %w", err)
	}
	defer mmd.Release()

	var aev *wca.IAudioEndpointVolume
	if err := mmd.Activate(wca.IID_IAudioEndpointVolume, wca.CLSCTX_ALL, nil, &aev); err != nil {
		return nil, nil, fmt.Errorf("activate endpoint volume: %w", err)
	}

	ok = true
	return aev, func() {
		aev.Release()
		ole.CoUninitialize()
	}, nil
}

// do runs fn on the COM thread and waits for it, bounded by the call timeout.
func (e *coreAudioEndpoint) do(ctx context.Context, fn func(*wca.IAudioEndpointVolume) error) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	errc := make(chan error, 1)
	call := func(aev *wca.IAudioEndpointVolume) { errc <- fn(aev) }

	select {
	case e.calls <- call:
	case <-e.done:
		return errEndpointClosed
	case <-ctx.Done():
		return fmt.Errorf("core audio: %w", ctx.Err())
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return fmt.Errorf("core audio: %w", ctx.Err())
	}
}

func (e *coreAudioEndpoint) VolumeRange(ctx context.Context) (float64, float64, error) {
	var minDB, maxDB, step float32
	err := e.do(ctx, func(aev *wca.IAudioEndpointVolume) error {
		return aev.GetVolumeRange(&minDB, &maxDB, &step)
	})
	if err != nil {
		return 0, 0, fmt.Errorf("get volume range: %w", err)
	}
	return float64(minDB), float64(maxDB), nil
}

func (e *coreAudioEndpoint) MasterLevel(ctx context.Context) (float64, error) {
	var level float32
	err := e.do(ctx, func(aev *wca.IAudioEndpointVolume) error {
		return aev.GetMasterVolumeLevel(&level)
	})
	if err != nil {
		return 0, fmt.Errorf("get master level: %w", err)
	}
	return float64(level), nil
}

func (e *coreAudioEndpoint) SetMasterLevel(ctx context.Context, db float64) error {
	return e.do(ctx, func(aev *wca.IAudioEndpointVolume) error {
		return aev.SetMasterVolumeLevel(float32(db), nil)
	})
}

// Close stops the COM thread and releases the endpoint.
func (e *coreAudioEndpoint) Close() error {
	e.closeOnce.Do(func() {
		close(e.quit)
	})
	<-e.done
	return nil
}

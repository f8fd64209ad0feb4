package app

import (
	"runtime/debug"
	"time"

	"github.com/wenxinhu03/christmas-tree2/internal/gesture"
	"github.com/wenxinhu03/christmas-tree2/internal/state"
)

// runPipeline calls Tick at the configured cadence until stopCh closes.
func (a *App) runPipeline(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(a.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			a.safeTick()
		}
	}
}

// safeTick runs one tick and recovers a panic so the loop keeps going.
func (a *App) safeTick() {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("gesture tick panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	a.Tick()
}

// Tick runs the gesture pipeline once:
//
//  1. Skip unless the controller is in gesture mode
//  2. Sample and mirror the current frame; skip if the source is not ready
//  3. Difference against the previous sample; the first sample only primes it
//  4. Feed the motion statistics to the controller
//
// It reports whether motion statistics reached the controller. Tick is not
// safe for concurrent use; the tick loop is its only caller while running.
func (a *App) Tick() (gesture.Result, bool) {
	if a.controller.Mode() != state.ModeGesture {
		return gesture.Result{}, false
	}

	if a.resetDiff.Swap(false) {
		a.differ.Reset()
	}

	buf, ok := a.sampler.Sample(a.source)
	if !ok {
		return gesture.Result{}, false
	}

	mf, ok := a.differ.Diff(buf)
	if !ok {
		return gesture.Result{}, false
	}

	res := a.controller.ApplyMotion(mf)
	return res, true
}

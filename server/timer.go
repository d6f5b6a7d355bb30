package server

import (
	"sync"
	"time"
)

// FunctionDelayer manages functions, identified by keys, such that they are called after a set period of time.
// If a request to schedule a function call uses a key for a function that has already been scheduled, it resets
// the delay for that call and replaces the function.  For example, consider a FunctionDelayer f with a configured
// delay of 3 seconds.  If f.Delay("foo", a) is invoked only once, a() will be called 3 seconds later.  If
// f.Delay("foo", a) is invoked, and then f.Delay("foo", b) is invoked 2 seconds later, only b() will be called,
// 3 seconds after the second invocation (for a total of 5 seconds after the first).
type FunctionDelayer struct {
	sync.Mutex
	Duration time.Duration
	pending  map[string]*delayed
}

type delayed struct {
	timer *time.Timer
	fn    func()
}

// NewFunctionDelayer creates a new FunctionDelayer with the specified duration.
func NewFunctionDelayer(duration time.Duration) *FunctionDelayer {
	f := new(FunctionDelayer)
	f.Duration = duration
	f.pending = make(map[string]*delayed)
	return f
}

// Delay schedules a function to be called after FunctionDelayer's Duration has elapsed.  Subsequent calls to
// Delay with the same key reset the timer if it is still active, and the latest function is the one invoked
// when it expires.
func (f *FunctionDelayer) Delay(key string, fn func()) {
	f.Lock()
	defer f.Unlock()

	if d, ok := f.pending[key]; ok && d.timer.Stop() {
		// still waiting, so swap the function and restart the clock
		d.fn = fn
		d.timer.Reset(f.Duration)
		return
	}
	// no timer, or it already fired... add one!
	d := &delayed{fn: fn}
	d.timer = time.AfterFunc(f.Duration, func() { f.fire(key, d) })
	f.pending[key] = d
}

func (f *FunctionDelayer) fire(key string, d *delayed) {
	f.Lock()
	if f.pending[key] == d {
		delete(f.pending, key)
	}
	fn := d.fn
	f.Unlock()
	fn()
}

// Pending returns the number of scheduled calls that have not run yet.
func (f *FunctionDelayer) Pending() int {
	f.Lock()
	defer f.Unlock()
	return len(f.pending)
}

// Flush runs every scheduled call now, on the calling goroutine, instead of
// waiting for its timer.
func (f *FunctionDelayer) Flush() {
	f.Lock()
	var fns []func()
	for key, d := range f.pending {
		if d.timer.Stop() {
			fns = append(fns, d.fn)
		}
		delete(f.pending, key)
	}
	f.Unlock()

	for _, fn := range fns {
		fn()
	}
}

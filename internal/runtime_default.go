//go:build !wasm

package internal

import (
	"sync"

	"github.com/petermattis/goid"
)

var runtimes sync.Map

// GetRuntime returns the runtime bound to the calling goroutine, creating
// one on first use.
func GetRuntime() *Runtime {
	gid := getGID()

	if r, ok := runtimes.Load(gid); ok {
		return r.(*Runtime)
	}

	r := NewRuntime()
	runtimes.Store(gid, r)
	return r
}

// bindRuntime makes r the calling goroutine's runtime until the returned
// function runs. Used by Dispatch so that inbound native-side calls resolve
// to the runtime that owns the network they target.
func bindRuntime(r *Runtime) func() {
	gid := getGID()

	prev, hadPrev := runtimes.Load(gid)
	runtimes.Store(gid, r)

	return func() {
		if hadPrev {
			runtimes.Store(gid, prev)
		} else {
			runtimes.Delete(gid)
		}
	}
}

func getGID() int64 {
	return goid.Get()
}

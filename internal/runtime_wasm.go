//go:build wasm

package internal

import "sync"

var once sync.Once
var globalRuntime *Runtime

func GetRuntime() *Runtime {
	once.Do(func() {
		globalRuntime = NewRuntime()
	})

	return globalRuntime
}

// bindRuntime is a no-op on wasm: there is a single runtime and a single
// thread of execution.
func bindRuntime(*Runtime) func() {
	return func() {}
}

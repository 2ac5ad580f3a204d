package react

import (
	"errors"
	"log/slog"

	"github.com/bennofs/hsqml-react/internal"
	"github.com/bennofs/hsqml-react/registry"
)

// Config configures a reactive application run.
type Config struct {
	// Engine is the native runtime hosting the objects. Required.
	Engine registry.Engine

	// Logger receives lifecycle events; nil discards them.
	Logger *slog.Logger
}

// Run compiles the reactive network by calling build on the current
// goroutine, hands the root object's handle to the engine as the context
// root, and blocks until the engine terminates. The network must yield
// exactly one root object. All reactive state built inside is disposed when
// Run returns.
func Run(cfg Config, build func(reg registry.Registry) (*Object, error)) error {
	if cfg.Engine == nil {
		return errors.New("react: config needs an engine")
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	rt := internal.GetRuntime()
	owner := rt.NewOwner()
	defer owner.Dispose()

	var (
		root *Object
		err  error
	)
	owner.Run(func() {
		root, err = build(cfg.Engine)
	})
	if err != nil {
		return err
	}
	if root == nil {
		return ErrNoRoot
	}

	log.Debug("network compiled", "root", root.Handle().ID())

	err = cfg.Engine.Exec(root.Handle())

	log.Debug("engine terminated", "error", err)

	return err
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	react "github.com/bennofs/hsqml-react"
	"github.com/bennofs/hsqml-react/registry"
)

// counter is the demo definition: a mutable count, a derived double, an
// increment method and a keyed row per count value up to the current count.
func counter(self *react.Self) react.Members {
	// shared between the property and the method: native writes and
	// increment calls both land here
	value, setValue := react.NewBehavior(0)

	count := react.Mutable("count", func(_ *react.Self, in *react.MutableIn[int]) *react.Behavior[int] {
		in.Changes.Subscribe(setValue)
		return value
	})

	double := react.ReadOnly("double", func(self *react.Self) *react.Behavior[int] {
		c := react.SelfBehavior[int](self, "count")
		return react.Derive(func() int { return c.Sample() * 2 })
	})

	increment := react.Callable("increment", func(_ *react.Self, _ *react.CallableIn) *react.Behavior[func() int] {
		b, _ := react.NewBehavior(func() int {
			next := value.Sample() + 1
			setValue(next)
			return next
		})
		return b
	})

	rows := react.Embedded("rows", func(self *react.Self, _ *react.EmbedIn) *react.Behavior[*react.Embed] {
		c := react.SelfBehavior[int](self, "count")

		return react.Derive(func() *react.Embed {
			children := []*react.Embed{}
			for i := 0; i < c.Sample(); i++ {
				label := fmt.Sprintf("row %d", i)
				children = append(children, react.EmbedKeyed(i, func(*react.Self) react.Members {
					return react.Members{react.ReadOnly("label", func(*react.Self) *react.Behavior[string] {
						return react.Derive(func() string { return label })
					})}
				}))
			}
			return react.EmbedAll(children...)
		})
	})

	return react.Members{count, double, increment, rows}
}

func runDemo(cmd *cobra.Command, args []string) error {
	log := newLogger()
	steps := viper.GetInt("steps")

	engine := registry.NewMem()
	engine.Logger = log

	engine.Script = func(m *registry.Mem, root registry.Handle) error {
		m.OnSignal(func(h registry.Handle, sig registry.SignalID) {
			log.Debug("change signal", "object", h.ID(), "signal", sig)
		})

		for i := 1; i <= steps; i++ {
			if err := m.WriteProperty(root, "count", i); err != nil {
				return err
			}

			count, err := m.ReadProperty(root, "count")
			if err != nil {
				return err
			}
			double, err := m.ReadProperty(root, "double")
			if err != nil {
				return err
			}
			rows, err := m.ReadProperty(root, "rows")
			if err != nil {
				return err
			}

			fmt.Printf("count=%v double=%v rows=%d\n", count, double, len(rows.([]any)))
		}

		got, err := m.Invoke(root, "increment")
		if err != nil {
			return err
		}
		fmt.Printf("increment returned %v\n", got)

		return nil
	}

	return react.Run(react.Config{Engine: engine, Logger: log}, func(reg registry.Registry) (*react.Object, error) {
		return react.New(reg, counter)
	})
}

// Command reactdemo drives a small reactive object network against the
// in-memory registry, standing in for a real UI runtime.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "reactdemo",
	Short: "Demo of the reactive object bridge",
	Long: `Reactdemo builds a counter object network, registers it with the
in-memory engine and scripts a few native-side interactions against it.`,
	RunE: runDemo,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.Flags().Int("steps", 3, "number of scripted increments")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("steps", rootCmd.Flags().Lookup("steps"))
}

func initConfig() {
	viper.SetEnvPrefix("REACTDEMO")
	viper.AutomaticEnv()
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

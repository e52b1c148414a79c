package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mirkobrombin/go-warden/v1/presets"
	"github.com/mirkobrombin/go-warden/v1/ratelimit"
)

var useCmd = &cobra.Command{
	Use:   "use [token]",
	Short: "Count calls for a token against a rate limiter",
	Args:  cobra.ExactArgs(1),
	RunE:  runUse,
}

func init() {
	addLimiterFlags(useCmd)
	useCmd.Flags().Int("count", 1, "Number of calls to make")
}

func addLimiterFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", "sliding", "Limiter algorithm (fixed, sliding)")
	cmd.Flags().Int64("max", 50, "Calls admitted per window")
	cmd.Flags().Duration("window", time.Minute, "Window length")
	cmd.Flags().String("prefix", "warden:rl:", "Key prefix for limiter counters")
}

// newLimiter builds the limiter selected by --mode on the first node.
func newLimiter() (ratelimit.Limiter, error) {
	nodes, err := nodeOptions()
	if err != nil {
		return nil, err
	}
	max := viper.GetInt64("max")
	window := viper.GetDuration("window")
	prefix := ratelimit.WithPrefix(viper.GetString("prefix"))
	switch mode := viper.GetString("mode"); mode {
	case "fixed":
		return presets.NewFixedWindow(nodes[0], max, prefix, ratelimit.WithWindow(window)), nil
	case "sliding":
		return presets.NewSlidingWindow(nodes[0], max, window, prefix), nil
	default:
		return nil, fmt.Errorf("invalid mode: %s (expected one of: fixed, sliding)", mode)
	}
}

func runUse(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	l, err := newLimiter()
	if err != nil {
		return err
	}
	for i := 0; i < viper.GetInt("count"); i++ {
		ok, err := l.Use(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to use limiter: %w", err)
		}
		fmt.Printf("allowed=%v\n", ok)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	warderrors "github.com/mirkobrombin/go-warden/v1/errors"
	"github.com/mirkobrombin/go-warden/v1/lock"
	"github.com/mirkobrombin/go-warden/v1/presets"
)

var lockCmd = &cobra.Command{
	Use:   "lock [name]",
	Short: "Acquire a lock, hold it and release it",
	Long: `Acquire the named lock on the configured nodes. With a single address the lock
lives on that node; with several it needs a majority of them. Without --wait the
attempt is made once.`,
	Args: cobra.ExactArgs(1),
	RunE: runLock,
}

func init() {
	lockCmd.Flags().Duration("lease", 10*time.Second, "Lease duration of the lock")
	lockCmd.Flags().Duration("hold", 0, "How long to hold the lock before releasing it")
	lockCmd.Flags().Duration("wait", 0, "Retry until the lock is acquired or this much time passed")
}

func newLocker(ctx context.Context, name string) (lock.Locker, error) {
	nodes, err := nodeOptions()
	if err != nil {
		return nil, err
	}
	if len(nodes) == 1 {
		return presets.NewSingleLock(ctx, nodes[0], name)
	}
	return presets.NewQuorumLock(ctx, nodes, name, viper.GetDuration("timeout"))
}

func runLock(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	name := args[0]
	lease := viper.GetDuration("lease")

	l, err := newLocker(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to set up lock: %w", err)
	}

	var acquired bool
	if wait := viper.GetDuration("wait"); wait > 0 {
		wctx, cancel := context.WithTimeout(ctx, wait)
		err = lock.Acquire(wctx, l, lease, 0)
		cancel()
		acquired = err == nil
		if errors.Is(err, warderrors.ErrTimeout) {
			err = nil
		}
	} else {
		acquired, err = l.Lock(ctx, lease)
	}
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	fmt.Printf("acquired=%v\n", acquired)
	if !acquired {
		return nil
	}

	if hold := viper.GetDuration("hold"); hold > 0 {
		slog.Info("holding lock", "lock", name, "hold", hold)
		select {
		case <-time.After(hold):
		case <-ctx.Done():
		}
	}
	if err := l.Release(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	fmt.Println("released=true")
	return nil
}

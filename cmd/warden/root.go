package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/mirkobrombin/go-warden/v1/presets"
)

var (
	tracerProvider *sdktrace.TracerProvider

	rootCmd = &cobra.Command{
		Use:   "warden",
		Short: "Distributed locks and rate limiters on Redis",
		Long: `warden drives distributed locks and rate limiters backed by one or more Redis nodes.
Every flag can also be set through an environment variable named WARDEN_<FLAG>
(e.g. WARDEN_ADDRS=localhost:6379,localhost:6380). A .env file in the working
directory is loaded first.`,
		SilenceUsage:       true,
		PersistentPreRunE:  setup,
		PersistentPostRunE: teardown,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("addrs", "localhost:6379", "Comma-separated list of Redis node addresses. More than one address selects the quorum lock")
	rootCmd.PersistentFlags().String("password", "", "Password used for every node")
	rootCmd.PersistentFlags().Int("db", 0, "Redis database index")
	rootCmd.PersistentFlags().Int("pool-size", 0, "Connections per node (0 keeps the client default)")
	rootCmd.PersistentFlags().Duration("timeout", 500*time.Millisecond, "Per-node network timeout")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("trace", false, "Print OpenTelemetry spans to stdout")

	rootCmd.AddCommand(lockCmd, useCmd, benchCmd)
}

func initConfig() {
	_ = godotenv.Load()
	viper.SetEnvPrefix("WARDEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func setup(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log-level"))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", viper.GetString("log-level"), err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if viper.GetBool("trace") {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return err
		}
		tracerProvider = sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
		otel.SetTracerProvider(tracerProvider)
	}
	return nil
}

func teardown(cmd *cobra.Command, _ []string) error {
	if tracerProvider == nil {
		return nil
	}
	return tracerProvider.Shutdown(cmd.Context())
}

// nodeOptions parses the configured node list.
func nodeOptions() ([]presets.RedisOptions, error) {
	var nodes []presets.RedisOptions
	for _, addr := range strings.Split(viper.GetString("addrs"), ",") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		nodes = append(nodes, presets.RedisOptions{
			Addr:     addr,
			Password: viper.GetString("password"),
			DB:       viper.GetInt("db"),
			PoolSize: viper.GetInt("pool-size"),
			Timeout:  viper.GetDuration("timeout"),
		})
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("no node addresses configured")
	}
	return nodes, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

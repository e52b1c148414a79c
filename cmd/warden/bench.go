package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/mirkobrombin/go-warden/v1/metrics"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Load a rate limiter with concurrent callers",
	Args:  cobra.NoArgs,
	RunE:  runBench,
}

func init() {
	addLimiterFlags(benchCmd)
	benchCmd.Flags().IntP("concurrency", "c", 50, "Number of concurrent callers")
	benchCmd.Flags().IntP("requests", "n", 100000, "Total number of calls")
	benchCmd.Flags().Int("tokens", 100, "Number of distinct tokens")
	benchCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address while running (e.g. :2112)")
}

func runBench(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	l, err := newLimiter()
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	metrics.RegisterCoreMetrics(reg)
	if addr := viper.GetString("metrics-addr"); addr != "" {
		srv := &http.Server{Addr: addr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("metrics server: %v", err)
			}
		}()
		defer srv.Close()
	}

	concurrency := viper.GetInt("concurrency")
	requests := viper.GetInt("requests")
	tokens := viper.GetInt("tokens")
	if concurrency <= 0 || tokens <= 0 {
		return errors.New("concurrency and tokens must be positive")
	}
	log.Printf("Starting benchmark: %d calls, %d concurrency, %d tokens, mode %s", requests, concurrency, tokens, viper.GetString("mode"))

	var allowed, rejected, failed int64
	perWorker := requests / concurrency
	g, gctx := errgroup.WithContext(ctx)
	start := time.Now()
	for w := 0; w < concurrency; w++ {
		w := w
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				token := "bench-" + strconv.Itoa((w*perWorker+i)%tokens)
				ok, err := l.Use(gctx, token)
				switch {
				case err != nil:
					atomic.AddInt64(&failed, 1)
				case ok:
					atomic.AddInt64(&allowed, 1)
				default:
					atomic.AddInt64(&rejected, 1)
				}
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)
	total := allowed + rejected + failed

	log.Printf("Finished in %v", elapsed)
	log.Printf("Throughput: %.2f calls/s", float64(total)/elapsed.Seconds())
	log.Printf("Allowed: %d Rejected: %d", allowed, rejected)
	if failed > 0 {
		log.Printf("Errors: %d", failed)
	}
	return nil
}

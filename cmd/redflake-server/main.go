// Command redflake-server runs a standalone RESP2/RESP3 Snowflake ID
// server: connect, send HELLO or NEXT, get back a strictly increasing
// 64-bit identifier.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/redflake/redflake/internal/buildinfo"
	"github.com/redflake/redflake/server"
)

var (
	port        int
	machine     uint8
	maxClients  int64
	metricsAddr string
)

var rootCmd = &cobra.Command{
	Use:     "redflake-server",
	Short:   "A RESP2/RESP3 server that issues monotone 64-bit Snowflake IDs",
	Version: buildinfo.Version,
	RunE:    run,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().IntVarP(&port, "port", "p", 6380, "TCP port to listen on")
	rootCmd.Flags().Uint8VarP(&machine, "machine", "m", 0, "machine identifier stamped into every issued ID")
	rootCmd.Flags().Int64Var(&maxClients, "max-clients", 1024, "maximum number of concurrently open connections")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on (disabled if empty)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	reg := prometheus.NewRegistry()
	metrics := server.NewMetrics(reg)

	srv, err := server.New(fmt.Sprintf(":%d", port), server.Options{
		Machine:    machine,
		MaxClients: maxClients,
		Metrics:    metrics,
		Log:        log,
	})
	if err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			log.Infof("metrics listening on %s", metricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("metrics server: %v", err)
			}
		}()
		go func() {
			<-ctx.Done()
			_ = metricsSrv.Close()
		}()
	}

	log.Infof("%s %s listening on %s (machine=%d, max-clients=%d)", buildinfo.Name, buildinfo.Version, srv.Addr(), machine, maxClients)
	return srv.Serve(ctx)
}

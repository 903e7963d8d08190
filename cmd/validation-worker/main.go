package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/denysvitali/preclear/pkg/cli"
	"github.com/denysvitali/preclear/pkg/events"
	"github.com/denysvitali/preclear/pkg/logutils"
	"github.com/denysvitali/preclear/pkg/metrics"
	"github.com/denysvitali/preclear/pkg/orchestrator"
	"github.com/denysvitali/preclear/pkg/pipeline"
)

var args struct {
	pipeline.Args
	logutils.Flags

	RequestTopic string `arg:"--request-topic,env:KAFKA_REQUEST_TOPIC" default:"shipment-validation-requests"`
	GroupID      string `arg:"--group-id,env:KAFKA_GROUP_ID" default:"preclear-validation-worker"`
	Workers      int    `arg:"-w,--workers,env:WORKERS" default:"4"`
	MetricsAddr  string `arg:"--metrics-addr,env:METRICS_ADDR" default:"127.0.0.1:9108"`
}

var log = logrus.StandardLogger()

func main() {
	cli.LoadDotEnv()
	arg.MustParse(&args)
	if err := cli.FillKeychainValues(&args); err != nil {
		log.Fatalf("fill keychain values: %v", err)
	}
	args.Flags.Setup()
	if len(args.KafkaBrokers) == 0 {
		log.Fatalf("--kafka-brokers is required")
	}
	if args.Workers <= 0 {
		args.Workers = 4
		log.Warnf("workers cannot be <= 0, resetting value to %d", args.Workers)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := pipeline.Build(ctx, args.Args, metrics.New(prometheus.DefaultRegisterer))
	if err != nil {
		log.Fatalf("unable to build validation pipeline: %v", err)
	}
	defer p.Close()

	if args.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(args.MetricsAddr, mux); err != nil {
				log.Errorf("metrics server: %v", err)
			}
		}()
	}

	consumer := events.NewConsumer(args.KafkaBrokers, args.RequestTopic, args.GroupID)
	defer consumer.Close()

	ch := make(chan string)
	done := make(chan struct{})
	go func() {
		orchestrator.RunPool(ctx, p.Orchestrator, args.Workers, ch)
		close(done)
	}()

	err = consumer.Run(ctx, func(ctx context.Context, req events.ValidationRequest) error {
		select {
		case ch <- req.ShipmentID:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	close(ch)
	<-done
	if err != nil {
		log.Fatalf("consumer stopped: %v", err)
	}
	log.Infof("done")
}

package main

import (
	"context"

	"github.com/alexflint/go-arg"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	backend "github.com/denysvitali/preclear"
	"github.com/denysvitali/preclear/pkg/cli"
	"github.com/denysvitali/preclear/pkg/logutils"
	"github.com/denysvitali/preclear/pkg/metrics"
	"github.com/denysvitali/preclear/pkg/pipeline"
)

var args struct {
	pipeline.Args
	logutils.Flags

	ListenAddr string `arg:"-L,--listen-addr,env:LISTEN_ADDR" default:"127.0.0.1:8085"`
}

var log = logrus.StandardLogger()

func main() {
	cli.LoadDotEnv()
	arg.MustParse(&args)
	if err := cli.FillKeychainValues(&args); err != nil {
		log.Fatalf("fill keychain values: %v", err)
	}
	args.Flags.Setup()

	ctx := context.Background()
	p, err := pipeline.Build(ctx, args.Args, metrics.New(prometheus.DefaultRegisterer))
	if err != nil {
		log.Fatalf("unable to build validation pipeline: %v", err)
	}
	defer p.Close()

	opts := []backend.Option{
		backend.WithPinger(p),
		backend.WithMetricsHandler(promhttp.Handler()),
	}
	if p.Indexer != nil {
		opts = append(opts, backend.WithVerdictStore(p.Indexer))
	}
	s := backend.New(p.Orchestrator, p.Rules, p.Storage, opts...)

	log.Infof("listening on %s", args.ListenAddr)
	if err := s.Run(args.ListenAddr); err != nil {
		log.Fatalf("listen: %v", err)
	}
}

package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"

	"github.com/alexflint/go-arg"
	"github.com/sirupsen/logrus"

	"github.com/denysvitali/preclear/pkg/cli"
	"github.com/denysvitali/preclear/pkg/logutils"
	"github.com/denysvitali/preclear/pkg/pipeline"
)

var args struct {
	ShipmentIDs []string `arg:"positional,required" help:"Shipments to validate"`

	pipeline.Args
	logutils.Flags
}

var log = logrus.StandardLogger()

func main() {
	cli.LoadDotEnv()
	arg.MustParse(&args)
	if err := cli.FillKeychainValues(&args); err != nil {
		log.Fatalf("fill keychain values: %v", err)
	}
	args.Flags.Setup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p, err := pipeline.Build(ctx, args.Args, nil)
	if err != nil {
		log.Fatalf("unable to build validation pipeline: %v", err)
	}
	defer p.Close()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	failed := false
	for _, id := range args.ShipmentIDs {
		result, err := p.Orchestrator.ValidateShipmentDocuments(ctx, id)
		if err != nil {
			log.Errorf("unable to validate %s: %v", id, err)
			failed = true
			if result.RunID == "" {
				continue
			}
		}
		if err := enc.Encode(result); err != nil {
			log.Fatalf("unable to encode result: %v", err)
		}
	}
	if failed {
		p.Close()
		os.Exit(1)
	}
}

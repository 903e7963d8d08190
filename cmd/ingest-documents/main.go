package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/alexflint/go-arg"
	"github.com/sirupsen/logrus"

	"github.com/denysvitali/preclear/pkg/cli"
	"github.com/denysvitali/preclear/pkg/ingestor"
	"github.com/denysvitali/preclear/pkg/logutils"
	"github.com/denysvitali/preclear/pkg/shipments"
	"github.com/denysvitali/preclear/pkg/storage"
)

var args struct {
	ShipmentID   string   `arg:"-s,--shipment-id,required"`
	DocumentType string   `arg:"-t,--type" help:"Document type, guessed from the file name when empty"`
	Files        []string `arg:"positional,required"`
	DatabaseDSN  string   `arg:"--database-dsn,env:DATABASE_DSN,required"`

	storage.Args
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

	s := args.Args.MustSetup()

	db, err := shipments.Connect(ctx, args.DatabaseDSN)
	if err != nil {
		log.Fatalf("unable to connect to database: %v", err)
	}
	defer db.Close()

	i := ingestor.New(s, shipments.NewPostgresRepository(db))
	records, err := i.Ingest(ctx, args.ShipmentID, &ingestor.FileSource{
		Paths:        args.Files,
		DocumentType: args.DocumentType,
	})
	for _, r := range records {
		log.Infof("%s: %s (%s)", r.ID, r.FileName, r.DocumentType)
	}
	if err != nil {
		log.Fatalf("ingestion failed: %v", err)
	}
}

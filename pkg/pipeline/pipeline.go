package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/denysvitali/preclear/pkg/aiextract"
	"github.com/denysvitali/preclear/pkg/events"
	"github.com/denysvitali/preclear/pkg/extractor"
	"github.com/denysvitali/preclear/pkg/indexer"
	"github.com/denysvitali/preclear/pkg/metrics"
	"github.com/denysvitali/preclear/pkg/ocrclient"
	"github.com/denysvitali/preclear/pkg/ocrclient/caroundtripper"
	"github.com/denysvitali/preclear/pkg/orchestrator"
	"github.com/denysvitali/preclear/pkg/rules"
	"github.com/denysvitali/preclear/pkg/shipments"
	"github.com/denysvitali/preclear/pkg/storage"
	"github.com/denysvitali/preclear/pkg/storage/model"
	"github.com/denysvitali/preclear/pkg/validator"
)

var log = logrus.StandardLogger().WithField("package", "pipeline")

// Args configures the validation pipeline. Every collaborator except the
// database and the document storage is optional.
type Args struct {
	storage.Args

	DatabaseDSN     string        `arg:"--database-dsn,env:DATABASE_DSN,required" help:"PostgreSQL DSN of the shipments database"`
	Migrate         bool          `arg:"--migrate,env:DATABASE_MIGRATE" help:"Create the database tables if missing"`
	RulesPath       string        `arg:"--rules,env:RULES_PATH" default:"data/shipping_rules.csv" help:"Compliance rule dataset"`
	RulesDelimiter  string        `arg:"--rules-delimiter,env:RULES_DELIMITER" default:","`
	DocumentTimeout time.Duration `arg:"--document-timeout,env:DOCUMENT_TIMEOUT" default:"2m" help:"Maximum time spent extracting one document"`

	OcrApi       string `arg:"--ocr-api,env:OCR_API_ADDR" help:"Address of the OCR API, images are skipped when empty"`
	OcrApiCaPath string `arg:"--ocr-api-ca-path,env:OCR_API_CA_PATH"`

	GeminiApiKey string `arg:"--gemini-api-key,env:GEMINI_API_KEY" help:"Enables AI field extraction"`
	GeminiModel  string `arg:"--gemini-model,env:GEMINI_MODEL" default:"gemini-2.5-flash"`

	OpenSearchAddr               string `arg:"--opensearch-addr,env:OPENSEARCH_ADDR" help:"Verdicts are indexed when set"`
	OpenSearchIndex              string `arg:"--opensearch-index,env:OPENSEARCH_INDEX" default:"validations"`
	OpenSearchUsername           string `arg:"--opensearch-username,env:OPENSEARCH_USERNAME"`
	OpenSearchPassword           string `arg:"--opensearch-password,env:OPENSEARCH_PASSWORD"`
	OpenSearchInsecureSkipVerify bool   `arg:"--opensearch-insecure-skip-verify,env:OPENSEARCH_SKIP_TLS"`

	KafkaBrokers []string `arg:"--kafka-brokers,env:KAFKA_BROKERS" help:"Verdicts are published when set"`
	VerdictTopic string   `arg:"--verdict-topic,env:KAFKA_VERDICT_TOPIC" default:"shipment-verdicts"`
}

// Pipeline holds the wired validation components.
type Pipeline struct {
	Orchestrator *orchestrator.Orchestrator
	Rules        *rules.Dataset
	Storage      model.RWStorage
	Indexer      *indexer.Indexer
	Metrics      *metrics.Metrics

	db      *sqlx.DB
	closers []func() error
}

// Build connects to the configured collaborators and wires the orchestrator.
func Build(ctx context.Context, args Args, m *metrics.Metrics) (*Pipeline, error) {
	p := &Pipeline{Metrics: m}
	if err := p.build(ctx, args); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

func (p *Pipeline) build(ctx context.Context, args Args) error {
	var err error
	p.Storage, err = args.Args.Setup()
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	p.Rules = rules.New(rules.WithDelimiter(delimiter(args.RulesDelimiter)))
	n := p.Rules.LoadFile(args.RulesPath)
	p.Metrics.SetRulesLoaded(n)
	log.Infof("loaded %d compliance rules from %s", n, args.RulesPath)

	p.db, err = shipments.Connect(ctx, args.DatabaseDSN)
	if err != nil {
		return err
	}
	p.closers = append(p.closers, p.db.Close)
	repo := shipments.NewPostgresRepository(p.db)
	if args.Migrate {
		if err := repo.Migrate(ctx); err != nil {
			return err
		}
	}

	var extOpts []extractor.Option
	if args.OcrApi != "" {
		ocr, err := NewOCRClient(ctx, args.OcrApi, args.OcrApiCaPath)
		if err != nil {
			return err
		}
		extOpts = append(extOpts, extractor.WithTextRecognizer(ocrclient.NewRecognizer(ocr)))
	} else {
		log.Warnf("no OCR API configured, images will not be read")
	}

	ai, err := aiextract.New(ctx, args.GeminiApiKey, args.GeminiModel)
	if err != nil {
		return fmt.Errorf("ai extractor: %w", err)
	}
	if ai != nil {
		extOpts = append(extOpts, extractor.WithFieldExtractor(ai))
		p.closers = append(p.closers, func() error {
			ai.Close()
			return nil
		})
	}

	orchOpts := []orchestrator.Option{
		orchestrator.WithMetrics(p.Metrics),
		orchestrator.WithDocumentTimeout(args.DocumentTimeout),
	}

	if args.OpenSearchAddr != "" {
		idxOpts := []indexer.Option{
			indexer.WithIndex(args.OpenSearchIndex),
			indexer.WithOpenSearchUsername(args.OpenSearchUsername),
			indexer.WithOpenSearchPassword(args.OpenSearchPassword),
		}
		if args.OpenSearchInsecureSkipVerify {
			idxOpts = append(idxOpts, indexer.WithOpenSearchSkipTLS())
		}
		p.Indexer, err = indexer.New(ctx, args.OpenSearchAddr, idxOpts...)
		if err != nil {
			return fmt.Errorf("indexer: %w", err)
		}
		orchOpts = append(orchOpts, orchestrator.WithIndexer(p.Indexer))
	}

	if len(args.KafkaBrokers) > 0 {
		pub := events.NewPublisher(args.KafkaBrokers, args.VerdictTopic)
		p.closers = append(p.closers, pub.Close)
		orchOpts = append(orchOpts, orchestrator.WithPublisher(pub))
	}

	p.Orchestrator = orchestrator.New(
		repo,
		extractor.New(p.Storage, extOpts...),
		validator.New(p.Rules),
		orchOpts...,
	)
	return nil
}

// NewOCRClient creates an OCR API client trusting caPath when set. An unhealthy
// API is only logged.
func NewOCRClient(ctx context.Context, addr string, caPath string) (*ocrclient.Client, error) {
	c, err := ocrclient.New(addr)
	if err != nil {
		return nil, fmt.Errorf("ocr client: %w", err)
	}
	if caPath != "" {
		rt, err := caroundtripper.New(caPath)
		if err != nil {
			return nil, fmt.Errorf("ocr client CA: %w", err)
		}
		c.SetHttpTransport(rt)
	}
	healthy, err := c.Healthz(ctx)
	if err != nil {
		log.Warnf("unable to ping OCR API: %v", err)
	} else if !healthy {
		log.Warnf("OCR API is not healthy")
	}
	return c, nil
}

func delimiter(s string) rune {
	if s == `\t` || s == "tab" {
		return '\t'
	}
	for _, r := range s {
		return r
	}
	return ','
}

// Ping checks the database and, when configured, OpenSearch.
func (p *Pipeline) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if p.Indexer != nil {
		if err := p.Indexer.Ping(ctx); err != nil {
			return fmt.Errorf("opensearch: %w", err)
		}
	}
	return nil
}

func (p *Pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}

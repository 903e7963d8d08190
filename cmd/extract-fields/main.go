package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/sirupsen/logrus"

	"github.com/denysvitali/preclear/pkg/aiextract"
	"github.com/denysvitali/preclear/pkg/extractor"
	"github.com/denysvitali/preclear/pkg/logutils"
	"github.com/denysvitali/preclear/pkg/models"
	"github.com/denysvitali/preclear/pkg/ocrclient"
	"github.com/denysvitali/preclear/pkg/pipeline"
	"github.com/denysvitali/preclear/pkg/storage/fs"
)

var args struct {
	InputFile    string `arg:"positional,required"`
	DocumentType string `arg:"-t,--type" default:"Commercial Invoice" help:"Document type label"`

	OcrApi       string        `arg:"-a,--ocr-api,env:OCR_API_ADDR" help:"Address of the OCR API"`
	OcrApiCaPath string        `arg:"-c,--ocr-api-ca-path,env:OCR_API_CA_PATH"`
	GeminiApiKey string        `arg:"--gemini-api-key,env:GEMINI_API_KEY"`
	GeminiModel  string        `arg:"--gemini-model,env:GEMINI_MODEL" default:"gemini-2.5-flash"`
	Timeout      time.Duration `arg:"--timeout" default:"2m"`
	WithText     bool          `arg:"--with-text" help:"Include the extracted text in the output"`

	logutils.Flags
}

var log = logrus.StandardLogger()

func main() {
	arg.MustParse(&args)
	args.Flags.Setup()

	ctx, cancel := context.WithTimeout(context.Background(), args.Timeout)
	defer cancel()

	abs, err := filepath.Abs(args.InputFile)
	if err != nil {
		log.Fatalf("invalid path: %v", err)
	}
	storage, err := fs.New(filepath.Dir(abs))
	if err != nil {
		log.Fatalf("unable to open directory: %v", err)
	}

	var opts []extractor.Option
	if args.OcrApi != "" {
		c, err := pipeline.NewOCRClient(ctx, args.OcrApi, args.OcrApiCaPath)
		if err != nil {
			log.Fatalf("unable to create OCR client: %v", err)
		}
		opts = append(opts, extractor.WithTextRecognizer(ocrclient.NewRecognizer(c)))
	}

	ai, err := aiextract.New(ctx, args.GeminiApiKey, args.GeminiModel)
	if err != nil {
		log.Fatalf("unable to create AI extractor: %v", err)
	}
	if ai != nil {
		defer ai.Close()
		opts = append(opts, extractor.WithFieldExtractor(ai))
	}

	name := filepath.Base(abs)
	doc, err := extractor.New(storage, opts...).Extract(ctx, models.DocumentRecord{
		ID:           name,
		DocumentType: args.DocumentType,
		FileName:     name,
		StorageKey:   name,
	})
	if err != nil {
		log.Fatalf("unable to extract %s: %v", args.InputFile, err)
	}
	if !args.WithText {
		doc.Text = ""
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		log.Fatalf("unable to encode: %v", err)
	}
}

package indexer

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/opensearch-project/opensearch-go"
	"github.com/opensearch-project/opensearch-go/opensearchapi"
	"github.com/sirupsen/logrus"

	"github.com/denysvitali/preclear/pkg/models"
)

const (
	DefaultValidationsIndex = "validations"
	DefaultSearchSize       = 50
	scrollTimeout           = 10 * time.Minute
)

var ErrNotFound = errors.New("verdict not found")

var log = logrus.StandardLogger().WithField("package", "indexer")

// Indexer stores validation verdicts in OpenSearch so that they can be
// searched by issue, status or document text.
type Indexer struct {
	opensearchAddr               string
	opensearchUsername           string
	opensearchPassword           string
	opensearchInsecureSkipVerify bool
	validationsIndex             string

	opensearchClient *opensearch.Client
	now              func() time.Time
}

type Option func(*Indexer)

// Verdict is the indexed form of a validation run: the result and the
// documents it was computed from.
type Verdict struct {
	models.ValidationResult
	Documents []models.ExtractedDocument `json:"documents"`
	IndexedAt time.Time                  `json:"indexedAt"`
}

// Hit is a single OpenSearch document as returned by the get and search APIs.
type Hit[T any] struct {
	Index     string              `json:"_index"`
	Id        string              `json:"_id"`
	Version   int                 `json:"_version,omitempty"`
	Found     bool                `json:"found,omitempty"`
	Score     float64             `json:"_score,omitempty"`
	Source    T                   `json:"_source"`
	Highlight map[string][]string `json:"highlight,omitempty"`
}

type SearchResult struct {
	Total    int            `json:"total"`
	Hits     []Hit[Verdict] `json:"hits"`
	ScrollId string         `json:"scrollId,omitempty"`
}

func New(ctx context.Context, opensearchAddr string, opts ...Option) (*Indexer, error) {
	idx := &Indexer{
		opensearchAddr:   opensearchAddr,
		validationsIndex: DefaultValidationsIndex,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(idx)
	}

	var transport http.RoundTripper = http.DefaultTransport
	if idx.opensearchInsecureSkipVerify {
		transport = &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	}

	var err error
	idx.opensearchClient, err = opensearch.NewClient(opensearch.Config{
		Transport: transport,
		Addresses: []string{idx.opensearchAddr},
		Username:  idx.opensearchUsername,
		Password:  idx.opensearchPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("opensearch client: %w", err)
	}

	if err := idx.createIndex(ctx); err != nil {
		return nil, fmt.Errorf("unable to create opensearch index: %w", err)
	}
	return idx, nil
}

func (i *Indexer) IndexName() string {
	return i.validationsIndex
}

func (i *Indexer) Ping(ctx context.Context) error {
	req := opensearchapi.PingRequest{}
	res, err := req.Do(ctx, i.opensearchClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("unable to ping OpenSearch: %s", res.Status())
	}
	return nil
}

// Index stores the verdict of a shipment, replacing the previous one.
func (i *Indexer) Index(ctx context.Context, result models.ValidationResult, docs []models.ExtractedDocument) error {
	if docs == nil {
		docs = []models.ExtractedDocument{}
	}
	v := Verdict{
		ValidationResult: result,
		Documents:        docs,
		IndexedAt:        i.now(),
	}

	jsonBuffer := bytes.NewBuffer(nil)
	if err := json.NewEncoder(jsonBuffer).Encode(v); err != nil {
		return fmt.Errorf("unable to encode JSON: %w", err)
	}

	log.Debugf("indexing verdict %s of shipment %s", result.RunID, result.ShipmentID)
	req := opensearchapi.IndexRequest{
		Index:      i.validationsIndex,
		DocumentID: result.ShipmentID,
		Body:       jsonBuffer,
		OpType:     "index",
	}
	res, err := req.Do(ctx, i.opensearchClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("opensearch returned an invalid status %s: %s", res.Status(), decodeError(res.Body))
	}
	return nil
}

// Get returns the latest verdict of a shipment.
func (i *Indexer) Get(ctx context.Context, shipmentID string) (*Verdict, error) {
	req := opensearchapi.GetRequest{Index: i.validationsIndex, DocumentID: shipmentID}
	res, err := req.Do(ctx, i.opensearchClient)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("unable to get verdict %s: %s", shipmentID, res.Status())
	}

	var hit Hit[Verdict]
	if err := json.NewDecoder(res.Body).Decode(&hit); err != nil {
		return nil, fmt.Errorf("unable to decode verdict: %w", err)
	}
	if !hit.Found {
		return nil, ErrNotFound
	}
	return &hit.Source, nil
}

// Search runs a query_string search over the verdicts, highlighting matches
// in issue messages and document text.
func (i *Indexer) Search(ctx context.Context, term string, size int) (*SearchResult, error) {
	if size <= 0 {
		size = DefaultSearchSize
	}
	searchContent := map[string]any{
		"size": size,
		"query": map[string]any{
			"query_string": map[string]any{
				"query": term,
			},
		},
		"highlight": map[string]any{
			"fields": map[string]any{
				"documents.text": map[string]any{},
				"issues.message": map[string]any{},
			},
		},
	}
	jsonBody, err := json.Marshal(searchContent)
	if err != nil {
		return nil, fmt.Errorf("unable to marshal JSON: %w", err)
	}

	req := opensearchapi.SearchRequest{
		Index: []string{i.validationsIndex},
		Body:  bytes.NewReader(jsonBody),
	}
	res, err := req.Do(ctx, i.opensearchClient)
	if err != nil {
		return nil, err
	}
	return decodeSearch(res)
}

// List pages through all verdicts, newest first. An empty scrollID starts a
// new scroll.
func (i *Indexer) List(ctx context.Context, scrollID string) (*SearchResult, error) {
	var res *opensearchapi.Response
	var err error
	if scrollID != "" {
		req := opensearchapi.ScrollRequest{
			ScrollID: scrollID,
			Scroll:   scrollTimeout,
		}
		res, err = req.Do(ctx, i.opensearchClient)
	} else {
		req := opensearchapi.SearchRequest{
			Index:  []string{i.validationsIndex},
			Sort:   []string{"indexedAt:desc"},
			Scroll: scrollTimeout,
		}
		res, err = req.Do(ctx, i.opensearchClient)
	}
	if err != nil {
		return nil, err
	}
	return decodeSearch(res)
}

func decodeSearch(res *opensearchapi.Response) (*SearchResult, error) {
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search failed with status %s: %s", res.Status(), decodeError(res.Body))
	}

	var body struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []Hit[Verdict] `json:"hits"`
		} `json:"hits"`
		ScrollId string `json:"_scroll_id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("unable to decode search response: %w", err)
	}
	hits := body.Hits.Hits
	if hits == nil {
		hits = []Hit[Verdict]{}
	}
	return &SearchResult{
		Total:    body.Hits.Total.Value,
		Hits:     hits,
		ScrollId: body.ScrollId,
	}, nil
}

func decodeError(body io.Reader) string {
	var errorMessage struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&errorMessage); err != nil {
		return ""
	}
	return string(errorMessage.Error)
}

func (i *Indexer) createIndex(ctx context.Context) error {
	req := opensearchapi.IndicesCreateRequest{Index: i.validationsIndex}
	res, err := req.Do(ctx, i.opensearchClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusBadRequest {
		// Index already exists
		return nil
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", res.Status())
	}
	return nil
}

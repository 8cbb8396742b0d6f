package facetbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/core/search"
)

// ElasticBackend executes query contexts against Elasticsearch.
type ElasticBackend struct {
	client *elasticsearch.TypedClient
	config elasticsearch.Config
}

// ElasticBackendOption configures an ElasticBackend.
type ElasticBackendOption func(*ElasticBackend)

// WithScheme sets the scheme used for every node address (default "http").
func WithScheme(scheme string) ElasticBackendOption {
	return func(b *ElasticBackend) {
		b.config.Addresses = updateURLScheme(b.config.Addresses, scheme)
	}
}

func updateURLScheme(addresses []string, scheme string) []string {
	updated := make([]string, len(addresses))
	for i, addr := range addresses {
		addr = strings.TrimPrefix(addr, "http://")
		addr = strings.TrimPrefix(addr, "https://")
		updated[i] = scheme + "://" + addr
	}
	return updated
}

// WithCredentials sets basic authentication credentials.
func WithCredentials(username, password string) ElasticBackendOption {
	return func(b *ElasticBackend) {
		b.config.Username = username
		b.config.Password = password
	}
}

// WithSniff enables node discovery on start.
func WithSniff(enabled bool) ElasticBackendOption {
	return func(b *ElasticBackend) {
		b.config.DiscoverNodesOnStart = enabled
	}
}

// WithHttpClient uses the transport of httpClient for requests.
func WithHttpClient(httpClient *http.Client) ElasticBackendOption {
	return func(b *ElasticBackend) {
		b.config.Transport = httpClient.Transport
	}
}

// WithCACert sets a custom CA certificate.
func WithCACert(cert []byte) ElasticBackendOption {
	return func(b *ElasticBackend) {
		b.config.CACert = cert
	}
}

// NewElasticBackend creates a backend for the given nodes. Nodes without a
// scheme are addressed over http.
//
// Example:
//
//	backend, err := facetbridge.NewElasticBackend(
//	    []string{"localhost:9200"},
//	    facetbridge.WithCredentials("elastic", "changeme"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
func NewElasticBackend(nodes []string, opts ...ElasticBackendOption) (*ElasticBackend, error) {
	addresses := make([]string, len(nodes))
	for i, node := range nodes {
		if !strings.HasPrefix(node, "http://") && !strings.HasPrefix(node, "https://") {
			addresses[i] = "http://" + node
		} else {
			addresses[i] = node
		}
	}

	backend := &ElasticBackend{
		config: elasticsearch.Config{
			Addresses: addresses,
		},
	}

	for _, opt := range opts {
		opt(backend)
	}

	client, err := elasticsearch.NewTypedClient(backend.config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	backend.client = client
	return backend, nil
}

// Client returns the underlying typed client.
func (b *ElasticBackend) Client() *elasticsearch.TypedClient {
	return b.client
}

// Search executes the query context and returns the raw result.
func (b *ElasticBackend) Search(ctx context.Context, q *Query) (*QueryResult, error) {
	start := time.Now()

	res, err := b.client.Search().
		Index(strings.Join(q.Indices(), ",")).
		Request(q.BuildRequest()).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch request failed: %w", err)
	}
	if res == nil {
		return nil, fmt.Errorf("no response from elasticsearch")
	}

	result := mapSearchResult(res)
	result.Duration = time.Since(start)
	return result, nil
}

func mapSearchResult(res *search.Response) *QueryResult {
	totalHits := int64(0)
	if res.Hits.Total != nil {
		totalHits = res.Hits.Total.Value
	}

	hits := make([]map[string]any, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var source map[string]any
		if len(hit.Source_) > 0 {
			if err := json.Unmarshal(hit.Source_, &source); err != nil {
				continue
			}
		}
		if source == nil {
			source = make(map[string]any)
		}

		for key, value := range hit.Fields {
			var field []any
			if err := json.Unmarshal(value, &field); err != nil {
				continue
			}
			for _, v := range field {
				source[key] = v
			}
		}

		hits = append(hits, source)
	}

	return NewQueryResult(totalHits, hits, res.Aggregations)
}

package facetbridge

import (
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
)

// DataProvider runs the auxiliary aggregations a bucket builder needs
// beyond the raw search result, scoped to the query context of the search.
type DataProvider interface {
	// Stats returns count, min, max, avg and sum of a numeric field.
	Stats(ctx context.Context, field string) (Stats, error)
	// Histogram returns the non-empty buckets of a fixed interval histogram of a numeric field.
	Histogram(ctx context.Context, field string, interval float64) ([]RawBucket, error)
}

// DataProviderFactory creates the data provider of one build call.
type DataProviderFactory interface {
	Create(ctx context.Context, index string, query *Query) (DataProvider, error)
}

// DataProviderFactoryFunc adapts a function to a DataProviderFactory.
type DataProviderFactoryFunc func(ctx context.Context, index string, query *Query) (DataProvider, error)

// Create calls f.
func (f DataProviderFactoryFunc) Create(ctx context.Context, index string, query *Query) (DataProvider, error) {
	return f(ctx, index, query)
}

// Searcher executes a query context.
type Searcher interface {
	Search(ctx context.Context, q *Query) (*QueryResult, error)
}

// ElasticDataProviderFactory creates data providers backed by Elasticsearch.
type ElasticDataProviderFactory struct {
	searcher Searcher
}

// NewElasticDataProviderFactory returns a factory whose providers search with searcher,
// usually an *ElasticBackend.
func NewElasticDataProviderFactory(searcher Searcher) *ElasticDataProviderFactory {
	return &ElasticDataProviderFactory{
		searcher: searcher,
	}
}

// Create returns a provider aggregating over the documents matched by query
// in index. A nil query matches all documents of the index.
func (f *ElasticDataProviderFactory) Create(_ context.Context, index string, query *Query) (DataProvider, error) {
	if index == "" && query == nil {
		return nil, fmt.Errorf("data provider needs an index or a query")
	}

	var base *Query
	if query == nil {
		base = NewQuery(nil, index)
	} else {
		base = query.Clone()
		if index != "" {
			base.SetIndices(index)
		}
	}

	return &ElasticDataProvider{
		searcher: f.searcher,
		query:    base,
	}, nil
}

// ElasticDataProvider runs size-0 searches for its aggregations.
type ElasticDataProvider struct {
	searcher Searcher
	query    *Query
}

const (
	statsAggregationName     = "stats"
	histogramAggregationName = "histogram"
)

func (p *ElasticDataProvider) aggregate(ctx context.Context, name string, agg types.Aggregations) (*QueryResult, error) {
	q := p.query.Clone()
	q.Selection().Update(WithPageSize(0), WithOffset(0))
	q.aggregations = map[string]types.Aggregations{name: agg}

	return p.searcher.Search(ctx, q)
}

// Stats implements DataProvider.
func (p *ElasticDataProvider) Stats(ctx context.Context, field string) (Stats, error) {
	f := field
	res, err := p.aggregate(ctx, statsAggregationName, types.Aggregations{
		Stats: &types.StatsAggregation{Field: &f},
	})
	if err != nil {
		return Stats{}, fmt.Errorf("stats aggregation on %s failed: %w", field, err)
	}

	agg, ok := res.RawAggregations()[statsAggregationName]
	if !ok {
		return Stats{}, nil
	}

	s, ok := decodeStats(agg)
	if !ok {
		return Stats{}, fmt.Errorf("unexpected stats aggregate for %s", field)
	}

	return s, nil
}

// Histogram implements DataProvider.
func (p *ElasticDataProvider) Histogram(ctx context.Context, field string, interval float64) ([]RawBucket, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("histogram interval must be positive, got %v", interval)
	}

	f := field
	iv := types.Float64(interval)
	minDocCount := 1
	res, err := p.aggregate(ctx, histogramAggregationName, types.Aggregations{
		Histogram: &types.HistogramAggregation{
			Field:       &f,
			Interval:    &iv,
			MinDocCount: &minDocCount,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("histogram aggregation on %s failed: %w", field, err)
	}

	buckets, _ := res.Buckets(histogramAggregationName)
	return buckets, nil
}

package facetbridge

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// FeatureFunc is the next step of a feature chain.
type FeatureFunc func(*Query) (*Result, error)

// Feature is a building block shaping the query context before the search
// and the result after it.
type Feature interface {
	Process(*Query, FeatureFunc) (*Result, error)
}

// FacetSource supplies externally computed facet counts for a request.
type FacetSource interface {
	Facets(ctx context.Context, req *SearchRequest) (FacetOverrides, error)
}

// Endpoint executes search requests and builds their aggregations.
type Endpoint struct {
	searcher Searcher
	builder  *AggregationBuilder
	facets   FacetSource
	features []Feature
	logger   logrus.FieldLogger
}

// EndpointOption configures an Endpoint.
type EndpointOption func(*Endpoint)

// WithFacetSource sets the source of facet overrides.
func WithFacetSource(source FacetSource) EndpointOption {
	return func(e *Endpoint) {
		e.facets = source
	}
}

// WithFeatures registers features.
func WithFeatures(features ...Feature) EndpointOption {
	return func(e *Endpoint) {
		e.features = append(e.features, features...)
	}
}

// WithEndpointLogger sets the logger.
func WithEndpointLogger(logger logrus.FieldLogger) EndpointOption {
	return func(e *Endpoint) {
		e.logger = logger
	}
}

// NewEndpoint returns an endpoint searching with searcher and building
// aggregations with builder.
//
// Example:
//
//	e := facetbridge.NewEndpoint(backend, builder,
//	    facetbridge.WithFacetSource(algolia.NewFacetSource(index)),
//	    facetbridge.WithFeatures(featureset.NewPaginationFeature()),
//	)
//	res, err := e.Execute(ctx, req)
func NewEndpoint(searcher Searcher, builder *AggregationBuilder, opts ...EndpointOption) *Endpoint {
	e := &Endpoint{
		searcher: searcher,
		builder:  builder,
		logger:   discardLogger(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Register adds features used when executing a request.
func (e *Endpoint) Register(features ...Feature) {
	e.features = append(e.features, features...)
}

// Execute searches for req and builds its aggregations.
func (e *Endpoint) Execute(ctx context.Context, req *SearchRequest) (*Result, error) {
	start := time.Now()

	q := NewQuery(req.Params, req.Index)
	q.SetText(req.Text)
	for _, bucket := range req.Buckets {
		b, ok := e.builder.BucketBuilder(bucket.Type)
		if !ok {
			continue
		}
		if d, ok := b.(Declarer); ok {
			d.Declare(q, bucket)
		}
	}

	cc := &callchain{}
	for _, feature := range e.features {
		cc.add(feature)
	}

	result, err := cc.exec(q, func(q *Query) (*Result, error) {
		return e.search(ctx, req, q)
	})
	if err != nil {
		return nil, fmt.Errorf("backend failed executing request: %w", err)
	}

	result.request = req
	if result.QueryResult != nil {
		result.Duration = time.Since(start)
	}

	return result, nil
}

func (e *Endpoint) search(ctx context.Context, req *SearchRequest, q *Query) (*Result, error) {
	raw, err := e.searcher.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	var overrides FacetOverrides
	if e.facets != nil {
		overrides, err = e.facets.Facets(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("facet source failed: %w", err)
		}
		e.logger.WithField("fields", len(overrides)).Debug("received facet overrides")
	}

	aggs, err := e.builder.Build(ctx, req, raw, WithQuery(q), WithFacets(overrides))
	if err != nil {
		return nil, err
	}

	return &Result{
		QueryResult:  raw,
		Aggregations: aggs,
	}, nil
}

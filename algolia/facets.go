// Package algolia supplies facet counts computed by an Algolia index.
package algolia

import (
	"context"
	"fmt"
	"io"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/opt"
	"github.com/algolia/algoliasearch-client-go/v3/algolia/search"
	"github.com/reveald/facetbridge"
	"github.com/sirupsen/logrus"
)

// Searcher is the part of *search.Index used by FacetSource.
type Searcher interface {
	Search(query string, opts ...interface{}) (search.QueryRes, error)
}

// NewIndex returns the Algolia index with the given name.
func NewIndex(appID, apiKey, index string) *search.Index {
	return search.NewClient(appID, apiKey).InitIndex(index)
}

// FacetSource is a facetbridge.FacetSource asking Algolia for the facet
// counts of the bucket fields of a request. Only term buckets are faceted
// unless WithBucketTypes says otherwise; range buckets are left to their
// builders.
//
// Example:
//
//	facets := algolia.NewFacetSource(algolia.NewIndex("APP", "KEY", "magento2_default_products"),
//	    algolia.WithMaxValuesPerFacet(100))
//	e := facetbridge.NewEndpoint(backend, builder, facetbridge.WithFacetSource(facets))
type FacetSource struct {
	searcher          Searcher
	filters           string
	maxValuesPerFacet int
	types             map[facetbridge.BucketType]struct{}
	logger            logrus.FieldLogger
}

// Option configures a FacetSource.
type Option func(*FacetSource)

// WithFilters restricts the faceted documents with an Algolia filter expression.
func WithFilters(filters string) Option {
	return func(fs *FacetSource) {
		fs.filters = filters
	}
}

// WithMaxValuesPerFacet limits the number of values returned per facet.
func WithMaxValuesPerFacet(n int) Option {
	return func(fs *FacetSource) {
		fs.maxValuesPerFacet = n
	}
}

// WithBucketTypes replaces the bucket types whose fields are faceted.
func WithBucketTypes(types ...facetbridge.BucketType) Option {
	return func(fs *FacetSource) {
		fs.types = make(map[facetbridge.BucketType]struct{}, len(types))
		for _, t := range types {
			fs.types[t] = struct{}{}
		}
	}
}

// WithLogger sets the logger receiving the debug line of every search.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(fs *FacetSource) {
		fs.logger = logger
	}
}

// NewFacetSource returns a FacetSource searching through searcher.
func NewFacetSource(searcher Searcher, opts ...Option) *FacetSource {
	l := logrus.New()
	l.SetOutput(io.Discard)

	fs := &FacetSource{
		searcher: searcher,
		types:    map[facetbridge.BucketType]struct{}{facetbridge.TermBucket: {}},
		logger:   l,
	}

	for _, o := range opts {
		o(fs)
	}

	return fs
}

// Facets implements facetbridge.FacetSource. Fields Algolia does not
// return facets for are absent from the result and left to the bucket
// builders.
func (fs *FacetSource) Facets(ctx context.Context, req *facetbridge.SearchRequest) (facetbridge.FacetOverrides, error) {
	fields := fs.fields(req)
	if len(fields) == 0 {
		return nil, nil
	}

	opts := []interface{}{
		ctx,
		opt.HitsPerPage(0),
		opt.Facets(fields...),
	}
	if fs.filters != "" {
		opts = append(opts, opt.Filters(fs.filters))
	}
	if fs.maxValuesPerFacet > 0 {
		opts = append(opts, opt.MaxValuesPerFacet(fs.maxValuesPerFacet))
	}

	res, err := fs.searcher.Search(req.Text, opts...)
	if err != nil {
		return nil, fmt.Errorf("algolia search failed: %w", err)
	}

	overrides := make(facetbridge.FacetOverrides, len(res.Facets))
	for _, field := range fields {
		counts, ok := res.Facets[field]
		if !ok {
			continue
		}

		values := make(map[string]int64, len(counts))
		for label, count := range counts {
			values[label] = int64(count)
		}
		overrides[field] = values
	}

	fs.logger.WithFields(logrus.Fields{
		"text":   req.Text,
		"fields": len(overrides),
		"hits":   res.NbHits,
	}).Debug("algolia facets")

	return overrides, nil
}

// fields lists the distinct fields of the buckets of an allowed type, in
// request order.
func (fs *FacetSource) fields(req *facetbridge.SearchRequest) []string {
	seen := make(map[string]struct{}, len(req.Buckets))
	var fields []string
	for _, b := range req.Buckets {
		if _, ok := fs.types[b.Type]; !ok {
			continue
		}
		if _, ok := seen[b.Field]; ok {
			continue
		}
		seen[b.Field] = struct{}{}
		fields = append(fields, b.Field)
	}
	return fields
}

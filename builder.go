package facetbridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrNoBucketBuilder is returned when a bucket type has no registered builder.
var ErrNoBucketBuilder = errors.New("no bucket builder registered")

// BucketBuilder builds the aggregation of one bucket from a raw search result.
type BucketBuilder interface {
	Build(ctx context.Context, bucket BucketRequest, dimensions Dimensions, raw *QueryResult, provider DataProvider) (Aggregation, error)
}

// BucketBuilderFunc adapts a function to a BucketBuilder.
type BucketBuilderFunc func(ctx context.Context, bucket BucketRequest, dimensions Dimensions, raw *QueryResult, provider DataProvider) (Aggregation, error)

// Build calls f.
func (f BucketBuilderFunc) Build(ctx context.Context, bucket BucketRequest, dimensions Dimensions, raw *QueryResult, provider DataProvider) (Aggregation, error) {
	return f(ctx, bucket, dimensions, raw, provider)
}

// Declarer is implemented by bucket builders that need an Elasticsearch
// aggregation in the search request in order to build their bucket.
type Declarer interface {
	Declare(q *Query, bucket BucketRequest)
}

// FacetOverrides holds externally computed facet counts:
// attribute code -> value label -> document count.
type FacetOverrides map[string]map[string]int64

// Lookup returns the label counts of an attribute.
func (f FacetOverrides) Lookup(field string) (map[string]int64, bool) {
	if len(f) == 0 {
		return nil, false
	}

	counts, ok := f[field]
	return counts, ok
}

// AggregationBuilder assembles the aggregations of a search request.
//
// Buckets whose field is present in the facet overrides are formatted
// from those counts, with labels translated to option ids. All other
// buckets are delegated to the BucketBuilder registered for their type.
//
// An AggregationBuilder holds no per-call state and may be shared.
type AggregationBuilder struct {
	factory  DataProviderFactory
	builders map[BucketType]BucketBuilder
	options  OptionLookup
	logger   logrus.FieldLogger
	metrics  *Metrics
}

// BuilderOption configures an AggregationBuilder.
type BuilderOption func(*AggregationBuilder)

// WithBucketBuilder registers the builder for a bucket type.
func WithBucketBuilder(t BucketType, b BucketBuilder) BuilderOption {
	return func(ab *AggregationBuilder) {
		ab.builders[t] = b
	}
}

// WithOptionLookup sets the lookup translating override labels into option ids.
func WithOptionLookup(lookup OptionLookup) BuilderOption {
	return func(ab *AggregationBuilder) {
		ab.options = lookup
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) BuilderOption {
	return func(ab *AggregationBuilder) {
		ab.logger = logger
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *Metrics) BuilderOption {
	return func(ab *AggregationBuilder) {
		ab.metrics = m
	}
}

// NewAggregationBuilder returns a builder creating data providers with factory.
//
// Example:
//
//	builder := facetbridge.NewAggregationBuilder(
//	    facetbridge.NewElasticDataProviderFactory(backend),
//	    facetbridge.WithBucketBuilder(facetbridge.TermBucket, featureset.NewTermsBucket()),
//	    facetbridge.WithBucketBuilder(facetbridge.DynamicBucket, featureset.NewDynamicBucket()),
//	    facetbridge.WithOptionLookup(facetbridge.NewOptionResolver(catalog)),
//	)
func NewAggregationBuilder(factory DataProviderFactory, opts ...BuilderOption) *AggregationBuilder {
	ab := &AggregationBuilder{
		factory:  factory,
		builders: make(map[BucketType]BucketBuilder),
		logger:   discardLogger(),
	}

	for _, opt := range opts {
		opt(ab)
	}

	return ab
}

// BucketBuilder returns the builder registered for a bucket type.
func (ab *AggregationBuilder) BucketBuilder(t BucketType) (BucketBuilder, bool) {
	b, ok := ab.builders[t]
	return b, ok
}

type buildState struct {
	query  *Query
	facets FacetOverrides
}

// BuildOption supplies per-call state to Build.
type BuildOption func(*buildState)

// WithQuery sets the query context handed to the data provider factory.
func WithQuery(q *Query) BuildOption {
	return func(s *buildState) {
		s.query = q
	}
}

// WithFacets sets the facet overrides used for this call.
func WithFacets(f FacetOverrides) BuildOption {
	return func(s *buildState) {
		s.facets = f
	}
}

// Build produces the aggregation of every bucket of req, keyed by bucket name.
//
// Buckets are processed in request order; a later bucket with the same
// name replaces an earlier one. The data provider is created at most once,
// and only when a bucket is delegated to a builder, so a failing factory
// goes unnoticed when every bucket is overridden. Errors of the factory,
// the bucket builders and the option lookup are returned unchanged.
func (ab *AggregationBuilder) Build(ctx context.Context, req *SearchRequest, raw *QueryResult, opts ...BuildOption) (Aggregations, error) {
	start := time.Now()
	defer func() {
		ab.metrics.observeBuild(time.Since(start).Seconds())
	}()

	state := &buildState{}
	for _, opt := range opts {
		opt(state)
	}

	var (
		provider    DataProvider
		hasProvider bool
	)

	aggregations := make(Aggregations, len(req.Buckets))
	for _, bucket := range req.Buckets {
		if counts, ok := state.facets.Lookup(bucket.Field); ok {
			agg, err := ab.formatAggregation(ctx, bucket.Field, counts)
			if err != nil {
				return nil, err
			}

			ab.logger.WithFields(logrus.Fields{
				"bucket": bucket.Name,
				"field":  bucket.Field,
				"source": sourceOverride,
			}).Debug("built bucket")
			ab.metrics.bucketBuilt(sourceOverride)

			aggregations[bucket.Name] = agg
			continue
		}

		builder, ok := ab.builders[bucket.Type]
		if !ok {
			return nil, fmt.Errorf("%w for type %q", ErrNoBucketBuilder, bucket.Type)
		}

		if !hasProvider {
			p, err := ab.factory.Create(ctx, req.Index, state.query)
			if err != nil {
				return nil, err
			}
			provider = p
			hasProvider = true
		}

		agg, err := builder.Build(ctx, bucket, req.Dimensions, raw, provider)
		if err != nil {
			return nil, err
		}

		ab.logger.WithFields(logrus.Fields{
			"bucket": bucket.Name,
			"field":  bucket.Field,
			"type":   string(bucket.Type),
			"source": sourceBuilder,
		}).Debug("built bucket")
		ab.metrics.bucketBuilt(sourceBuilder)

		aggregations[bucket.Name] = agg
	}

	return aggregations, nil
}

func (ab *AggregationBuilder) formatAggregation(ctx context.Context, field string, counts map[string]int64) (Aggregation, error) {
	agg := make(Aggregation, len(counts))

	// labels sharing an option id: the last label in sort order wins
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	for _, label := range labels {
		count := counts[label]
		optionID, err := ab.optionID(ctx, field, label)
		if err != nil {
			return nil, err
		}

		agg[optionID] = AggregationValue{
			Value: optionID,
			Count: strconv.FormatInt(count, 10),
		}
	}

	return agg, nil
}

func (ab *AggregationBuilder) optionID(ctx context.Context, field, label string) (string, error) {
	if ab.options == nil {
		return "", nil
	}

	optionID, err := ab.options.OptionIDByLabel(ctx, field, label)
	if err != nil {
		return "", err
	}

	ab.metrics.optionLookedUp(optionID)
	if optionID == "" {
		ab.logger.WithFields(logrus.Fields{
			"field": field,
			"label": label,
		}).Debug("no option id for label")
	}

	return optionID, nil
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

package facetbridge

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	ids   map[string]map[string]string
	err   error
	calls int
}

func (l *fakeLookup) OptionIDByLabel(_ context.Context, code, label string) (string, error) {
	l.calls++
	if l.err != nil {
		return "", l.err
	}
	return l.ids[code][label], nil
}

type fakeFactory struct {
	provider DataProvider
	err      error
	calls    int
	index    string
	query    *Query
}

func (f *fakeFactory) Create(_ context.Context, index string, query *Query) (DataProvider, error) {
	f.calls++
	f.index = index
	f.query = query
	if f.err != nil {
		return nil, f.err
	}
	return f.provider, nil
}

type nopProvider struct{}

func (nopProvider) Stats(context.Context, string) (Stats, error) {
	return Stats{}, nil
}

func (nopProvider) Histogram(context.Context, string, float64) ([]RawBucket, error) {
	return nil, nil
}

type recordingBuilder struct {
	agg       Aggregation
	err       error
	buckets   []BucketRequest
	providers []DataProvider
	dims      []Dimensions
}

func (b *recordingBuilder) Build(_ context.Context, bucket BucketRequest, dims Dimensions, _ *QueryResult, provider DataProvider) (Aggregation, error) {
	b.buckets = append(b.buckets, bucket)
	b.providers = append(b.providers, provider)
	b.dims = append(b.dims, dims)
	return b.agg, b.err
}

func colorRequest() *SearchRequest {
	return &SearchRequest{
		Index: "catalog_product",
		Buckets: []BucketRequest{
			{Field: "color", Type: TermBucket, Name: "color_bucket"},
		},
	}
}

func Test_Build_Override(t *testing.T) {
	lookup := &fakeLookup{ids: map[string]map[string]string{"color": {"Red": "12"}}}
	factory := &fakeFactory{provider: nopProvider{}}
	ab := NewAggregationBuilder(factory, WithOptionLookup(lookup))

	aggs, err := ab.Build(context.Background(), colorRequest(), NewQueryResult(0, nil, nil),
		WithFacets(FacetOverrides{"color": {"Red": 5}}))
	require.NoError(t, err)

	assert.Equal(t, Aggregations{
		"color_bucket": {"12": {Value: "12", Count: "5"}},
	}, aggs)
	assert.Zero(t, factory.calls)
}

func Test_Build_Override_Skips_Failing_Factory(t *testing.T) {
	factory := &fakeFactory{err: errors.New("boom")}
	lookup := &fakeLookup{ids: map[string]map[string]string{"color": {"Red": "12"}}}
	ab := NewAggregationBuilder(factory, WithOptionLookup(lookup))

	aggs, err := ab.Build(context.Background(), colorRequest(), NewQueryResult(0, nil, nil),
		WithFacets(FacetOverrides{"color": {"Red": 5}}))
	require.NoError(t, err)
	assert.Equal(t, Aggregations{
		"color_bucket": {"12": {Value: "12", Count: "5"}},
	}, aggs)
	assert.Zero(t, factory.calls)
}

func Test_Build_Override_Labels(t *testing.T) {
	table := []struct {
		name   string
		ids    map[string]string
		counts map[string]int64
		result Aggregation
	}{
		{"empty counts", map[string]string{}, map[string]int64{}, Aggregation{}},
		{"unresolved label", map[string]string{}, map[string]int64{"Teal": 2},
			Aggregation{"": {Value: "", Count: "2"}}},
		{"several labels", map[string]string{"Red": "12", "Blue": "13"}, map[string]int64{"Red": 5, "Blue": 0},
			Aggregation{"12": {Value: "12", Count: "5"}, "13": {Value: "13", Count: "0"}}},
		{"colliding labels", map[string]string{"Red": "12", "red": "12"}, map[string]int64{"Red": 5, "red": 7},
			Aggregation{"12": {Value: "12", Count: "7"}}},
		{"unresolved labels collide", map[string]string{}, map[string]int64{"A": 1, "B": 2},
			Aggregation{"": {Value: "", Count: "2"}}},
	}

	for _, tt := range table {
		t.Run(tt.name, func(t *testing.T) {
			lookup := &fakeLookup{ids: map[string]map[string]string{"color": tt.ids}}
			ab := NewAggregationBuilder(&fakeFactory{}, WithOptionLookup(lookup))

			aggs, err := ab.Build(context.Background(), colorRequest(), nil,
				WithFacets(FacetOverrides{"color": tt.counts}))
			require.NoError(t, err)
			assert.Equal(t, tt.result, aggs["color_bucket"])
		})
	}
}

func Test_Build_Override_Without_Lookup(t *testing.T) {
	ab := NewAggregationBuilder(&fakeFactory{})

	aggs, err := ab.Build(context.Background(), colorRequest(), nil,
		WithFacets(FacetOverrides{"color": {"Red": 5}}))
	require.NoError(t, err)
	assert.Equal(t, Aggregation{"": {Value: "", Count: "5"}}, aggs["color_bucket"])
}

func Test_Build_Delegates(t *testing.T) {
	provider := nopProvider{}
	factory := &fakeFactory{provider: provider}
	terms := &recordingBuilder{agg: Aggregation{"red": {Value: "red", Count: "3"}}}
	q := NewQuery(nil, "catalog_product")

	ab := NewAggregationBuilder(factory, WithBucketBuilder(TermBucket, terms))

	req := colorRequest()
	req.Dimensions = Dimensions{{Name: "scope", Value: "1"}}
	raw := NewQueryResult(3, nil, nil)

	aggs, err := ab.Build(context.Background(), req, raw, WithQuery(q))
	require.NoError(t, err)

	assert.Equal(t, Aggregations{"color_bucket": terms.agg}, aggs)
	assert.Equal(t, 1, factory.calls)
	assert.Equal(t, "catalog_product", factory.index)
	assert.Same(t, q, factory.query)
	assert.Equal(t, req.Buckets, terms.buckets)
	assert.Equal(t, []Dimensions{req.Dimensions}, terms.dims)
}

func Test_Build_Delegates_Without_Facets(t *testing.T) {
	factory := &fakeFactory{provider: nopProvider{}}
	terms := &recordingBuilder{agg: Aggregation{}}
	ab := NewAggregationBuilder(factory, WithBucketBuilder(TermBucket, terms))

	_, err := ab.Build(context.Background(), colorRequest(), nil, WithFacets(FacetOverrides{}))
	require.NoError(t, err)
	assert.Len(t, terms.buckets, 1)

	_, err = ab.Build(context.Background(), colorRequest(), nil, WithFacets(FacetOverrides{"size": {"M": 1}}))
	require.NoError(t, err)
	assert.Len(t, terms.buckets, 2)
}

func Test_Build_Mixed(t *testing.T) {
	factory := &fakeFactory{provider: nopProvider{}}
	terms := &recordingBuilder{agg: Aggregation{"M": {Value: "M", Count: "4"}}}
	dynamic := &recordingBuilder{agg: Aggregation{"0_100": {Value: "0_100", Count: "9"}}}
	lookup := &fakeLookup{ids: map[string]map[string]string{"color": {"Red": "12"}}}

	ab := NewAggregationBuilder(factory,
		WithBucketBuilder(TermBucket, terms),
		WithBucketBuilder(DynamicBucket, dynamic),
		WithOptionLookup(lookup))

	req := &SearchRequest{
		Index: "catalog_product",
		Buckets: []BucketRequest{
			{Field: "color", Type: TermBucket, Name: "color_bucket"},
			{Field: "size", Type: TermBucket, Name: "size_bucket"},
			{Field: "price", Type: DynamicBucket, Name: "price_bucket"},
		},
	}

	aggs, err := ab.Build(context.Background(), req, nil, WithFacets(FacetOverrides{"color": {"Red": 5}}))
	require.NoError(t, err)

	assert.Equal(t, Aggregations{
		"color_bucket": {"12": {Value: "12", Count: "5"}},
		"size_bucket":  terms.agg,
		"price_bucket": dynamic.agg,
	}, aggs)

	assert.Equal(t, 1, factory.calls)
	require.Len(t, terms.providers, 1)
	require.Len(t, dynamic.providers, 1)
	assert.Equal(t, terms.providers[0], dynamic.providers[0])
}

func Test_Build_Duplicate_Names(t *testing.T) {
	lookup := &fakeLookup{ids: map[string]map[string]string{
		"color": {"Red": "12"},
		"shade": {"Dark": "40"},
	}}
	ab := NewAggregationBuilder(&fakeFactory{}, WithOptionLookup(lookup))

	req := &SearchRequest{
		Buckets: []BucketRequest{
			{Field: "color", Type: TermBucket, Name: "bucket"},
			{Field: "shade", Type: TermBucket, Name: "bucket"},
		},
	}

	aggs, err := ab.Build(context.Background(), req, nil, WithFacets(FacetOverrides{
		"color": {"Red": 1},
		"shade": {"Dark": 2},
	}))
	require.NoError(t, err)
	assert.Equal(t, Aggregations{"bucket": {"40": {Value: "40", Count: "2"}}}, aggs)
}

func Test_Build_Empty_Request(t *testing.T) {
	factory := &fakeFactory{}
	ab := NewAggregationBuilder(factory)

	aggs, err := ab.Build(context.Background(), &SearchRequest{}, nil)
	require.NoError(t, err)
	assert.Empty(t, aggs)
	assert.Zero(t, factory.calls)
}

func Test_Build_Errors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("unknown bucket type", func(t *testing.T) {
		ab := NewAggregationBuilder(&fakeFactory{provider: nopProvider{}})
		req := &SearchRequest{Buckets: []BucketRequest{{Field: "f", Type: "histogram", Name: "f"}}}

		_, err := ab.Build(context.Background(), req, nil)
		assert.ErrorIs(t, err, ErrNoBucketBuilder)
		assert.Contains(t, err.Error(), "histogram")
	})

	t.Run("factory", func(t *testing.T) {
		terms := &recordingBuilder{}
		ab := NewAggregationBuilder(&fakeFactory{err: boom}, WithBucketBuilder(TermBucket, terms))

		_, err := ab.Build(context.Background(), colorRequest(), nil)
		assert.Equal(t, boom, err)
		assert.Empty(t, terms.buckets)
	})

	t.Run("bucket builder", func(t *testing.T) {
		terms := &recordingBuilder{err: boom}
		ab := NewAggregationBuilder(&fakeFactory{provider: nopProvider{}}, WithBucketBuilder(TermBucket, terms))

		_, err := ab.Build(context.Background(), colorRequest(), nil)
		assert.Equal(t, boom, err)
	})

	t.Run("option lookup", func(t *testing.T) {
		ab := NewAggregationBuilder(&fakeFactory{}, WithOptionLookup(&fakeLookup{err: boom}))

		_, err := ab.Build(context.Background(), colorRequest(), nil,
			WithFacets(FacetOverrides{"color": {"Red": 5}}))
		assert.Equal(t, boom, err)
	})
}

func Test_Build_BucketBuilderFunc(t *testing.T) {
	fn := BucketBuilderFunc(func(_ context.Context, bucket BucketRequest, _ Dimensions, _ *QueryResult, _ DataProvider) (Aggregation, error) {
		return Aggregation{bucket.Field: {Value: bucket.Field, Count: "1"}}, nil
	})
	ab := NewAggregationBuilder(&fakeFactory{provider: nopProvider{}}, WithBucketBuilder(TermBucket, fn))

	b, ok := ab.BucketBuilder(TermBucket)
	require.True(t, ok)
	require.NotNil(t, b)
	_, ok = ab.BucketBuilder(DynamicBucket)
	assert.False(t, ok)

	aggs, err := ab.Build(context.Background(), colorRequest(), nil)
	require.NoError(t, err)
	assert.Equal(t, Aggregation{"color": {Value: "color", Count: "1"}}, aggs["color_bucket"])
}

func Test_Build_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	lookup := &fakeLookup{ids: map[string]map[string]string{"color": {"Red": "12"}}}
	terms := &recordingBuilder{agg: Aggregation{}}
	ab := NewAggregationBuilder(&fakeFactory{provider: nopProvider{}},
		WithBucketBuilder(TermBucket, terms),
		WithOptionLookup(lookup),
		WithMetrics(metrics))

	req := &SearchRequest{
		Buckets: []BucketRequest{
			{Field: "color", Type: TermBucket, Name: "color_bucket"},
			{Field: "size", Type: TermBucket, Name: "size_bucket"},
		},
	}

	_, err := ab.Build(context.Background(), req, nil,
		WithFacets(FacetOverrides{"color": {"Red": 5, "Teal": 1}}))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.buckets.WithLabelValues(sourceOverride)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.buckets.WithLabelValues(sourceBuilder)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.optionLookups.WithLabelValues(lookupResolved)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.optionLookups.WithLabelValues(lookupUnresolved)))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.buildDuration))
}

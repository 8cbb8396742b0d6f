package featureset

const defaultAggregationSize = 10

// AggregationFeature holds the settings shared by term aggregations.
type AggregationFeature struct {
	size          int
	keywordSuffix string
}

type AggregationOption func(*AggregationFeature)

// WithAggregationSize sets the maximum number of terms returned per bucket.
func WithAggregationSize(size int) AggregationOption {
	return func(af *AggregationFeature) {
		af.size = size
	}
}

// WithKeywordSuffix sets a suffix appended to the bucket field to address
// its keyword sub-field, e.g. ".keyword" for dynamically mapped text fields.
func WithKeywordSuffix(suffix string) AggregationOption {
	return func(af *AggregationFeature) {
		af.keywordSuffix = suffix
	}
}

func buildAggregationFeature(opts ...AggregationOption) AggregationFeature {
	agg := AggregationFeature{
		size: defaultAggregationSize,
	}

	for _, opt := range opts {
		opt(&agg)
	}

	return agg
}

func (af AggregationFeature) field(property string) string {
	return property + af.keywordSuffix
}

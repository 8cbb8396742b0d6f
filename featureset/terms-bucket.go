package featureset

import (
	"context"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/reveald/facetbridge"
)

// TermsBucket builds term buckets: one value per distinct field value,
// keyed by the value itself.
//
// Example:
//
//	builder := facetbridge.NewAggregationBuilder(factory,
//	    facetbridge.WithBucketBuilder(facetbridge.TermBucket,
//	        featureset.NewTermsBucket(featureset.WithAggregationSize(50))),
//	)
type TermsBucket struct {
	agg AggregationFeature
}

func NewTermsBucket(opts ...AggregationOption) *TermsBucket {
	return &TermsBucket{
		agg: buildAggregationFeature(opts...),
	}
}

// Declare adds a terms aggregation named after the bucket.
func (tb *TermsBucket) Declare(q *facetbridge.Query, bucket facetbridge.BucketRequest) {
	field := tb.agg.field(bucket.Field)
	size := tb.agg.size

	q.Aggregation(bucket.Name, types.Aggregations{
		Terms: &types.TermsAggregation{
			Field: &field,
			Size:  &size,
		},
	})
}

// Build reads the declared terms aggregation from the raw result.
// A missing aggregation yields an empty bucket.
func (tb *TermsBucket) Build(_ context.Context, bucket facetbridge.BucketRequest, _ facetbridge.Dimensions, raw *facetbridge.QueryResult, _ facetbridge.DataProvider) (facetbridge.Aggregation, error) {
	agg := make(facetbridge.Aggregation)

	buckets, ok := raw.Buckets(bucket.Name)
	if !ok {
		return agg, nil
	}

	for _, b := range buckets {
		key := b.KeyString()
		agg[key] = facetbridge.AggregationValue{
			Value: key,
			Count: strconv.FormatInt(b.DocCount, 10),
		}
	}

	return agg, nil
}

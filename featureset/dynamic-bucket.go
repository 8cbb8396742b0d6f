package featureset

import (
	"context"
	"math"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/reveald/facetbridge"
)

// DynamicBucket builds range buckets over a numeric field, e.g. price.
//
// Ranges are keyed "from_to". Unless a fixed interval is configured the
// interval is derived from the maximum field value: the largest power of
// ten not above it, divided by ten while fewer than two ranges would
// remain, and never below one.
type DynamicBucket struct {
	interval float64
	neg      bool
}

type DynamicBucketOption func(*DynamicBucket)

// WithInterval fixes the range width.
func WithInterval(interval float64) DynamicBucketOption {
	return func(db *DynamicBucket) {
		db.interval = interval
	}
}

// WithNegativeValuesAllowed accepts negative range bounds in request parameters.
func WithNegativeValuesAllowed() DynamicBucketOption {
	return func(db *DynamicBucket) {
		db.neg = true
	}
}

func NewDynamicBucket(opts ...DynamicBucketOption) *DynamicBucket {
	db := &DynamicBucket{}

	for _, opt := range opts {
		opt(db)
	}

	return db
}

// Declare narrows the query to the "<field>.min" / "<field>.max" range of
// the request parameters, if any.
func (db *DynamicBucket) Declare(q *facetbridge.Query, bucket facetbridge.BucketRequest) {
	p, err := q.Params().Get(bucket.Field)
	if err != nil || !p.IsRangeValue() {
		return
	}

	rq := &types.NumberRangeQuery{}
	set := false

	max, wmax := p.Max()
	if wmax && (max >= 0 || db.neg) {
		lte := types.Float64(max)
		rq.Lte = &lte
		set = true
	}

	min, wmin := p.Min()
	if wmin && (!wmax || min <= max) && (min >= 0 || db.neg) {
		gte := types.Float64(min)
		rq.Gte = &gte
		set = true
	}

	if !set {
		return
	}

	q.With(types.Query{
		Range: map[string]types.RangeQuery{
			bucket.Field: rq,
		},
	})
}

// Build asks the data provider for the field statistics and histogram.
func (db *DynamicBucket) Build(ctx context.Context, bucket facetbridge.BucketRequest, _ facetbridge.Dimensions, _ *facetbridge.QueryResult, provider facetbridge.DataProvider) (facetbridge.Aggregation, error) {
	agg := make(facetbridge.Aggregation)

	interval := db.interval
	if interval <= 0 {
		stats, err := provider.Stats(ctx, bucket.Field)
		if err != nil {
			return nil, err
		}
		if stats.Count == 0 {
			return agg, nil
		}
		interval = autoInterval(stats.Max)
	}

	buckets, err := provider.Histogram(ctx, bucket.Field, interval)
	if err != nil {
		return nil, err
	}

	for _, b := range buckets {
		if b.DocCount == 0 {
			continue
		}

		from, ok := b.Key.(float64)
		if !ok {
			from, err = strconv.ParseFloat(b.KeyString(), 64)
			if err != nil {
				continue
			}
		}

		key := formatBound(from) + "_" + formatBound(from+interval)
		agg[key] = facetbridge.AggregationValue{
			Value: key,
			Count: strconv.FormatInt(b.DocCount, 10),
		}
	}

	return agg, nil
}

func autoInterval(max float64) float64 {
	if max < 1 {
		return 1
	}

	interval := math.Pow(10, math.Floor(math.Log10(max)))
	for interval > 1 && max/interval < 2 {
		interval /= 10
	}

	return math.Max(interval, 1)
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

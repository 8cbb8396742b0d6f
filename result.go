package facetbridge

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
)

// AggregationValue is a single facet value with its document count.
// Both fields are text, matching what the storefront layer expects.
type AggregationValue struct {
	Value string `json:"value"`
	Count string `json:"count"`
}

// Aggregation maps a facet key (an option id, a term or a range) to its value.
type Aggregation map[string]AggregationValue

// Aggregations maps bucket names to their built aggregation.
type Aggregations map[string]Aggregation

// QueryResult is the raw outcome of a search, as consumed by bucket builders.
//
// Example:
//
//	raw, err := backend.Search(ctx, q)
//	if err != nil {
//	    return err
//	}
//	buckets, ok := raw.Buckets("color_bucket")
//	for _, b := range buckets {
//	    fmt.Printf("%s: %d\n", b.KeyString(), b.DocCount)
//	}
type QueryResult struct {
	TotalHitCount int64
	Hits          []map[string]any
	Duration      time.Duration
	aggregations  map[string]types.Aggregate
}

// NewQueryResult creates a QueryResult from its parts.
func NewQueryResult(total int64, hits []map[string]any, aggregations map[string]types.Aggregate) *QueryResult {
	if hits == nil {
		hits = []map[string]any{}
	}
	if aggregations == nil {
		aggregations = make(map[string]types.Aggregate)
	}

	return &QueryResult{
		TotalHitCount: total,
		Hits:          hits,
		aggregations:  aggregations,
	}
}

// RawAggregations returns the aggregates as returned by Elasticsearch.
func (r *QueryResult) RawAggregations() map[string]types.Aggregate {
	if r == nil {
		return nil
	}

	return r.aggregations
}

// RawBucket is a bucket of a multi-bucket aggregate, independent of the
// aggregate's concrete type.
type RawBucket struct {
	Key         any      `json:"key"`
	KeyAsString string   `json:"key_as_string,omitempty"`
	DocCount    int64    `json:"doc_count"`
	From        *float64 `json:"from,omitempty"`
	To          *float64 `json:"to,omitempty"`
}

// KeyString returns the bucket key as text.
func (b RawBucket) KeyString() string {
	if b.KeyAsString != "" {
		return b.KeyAsString
	}

	switch k := b.Key.(type) {
	case nil:
		return ""
	case string:
		return k
	case float64:
		return strconv.FormatFloat(k, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(k)
	case json.Number:
		return k.String()
	default:
		data, err := json.Marshal(k)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// Buckets returns the buckets of the named aggregate.
//
// Terms, histogram and range aggregates are supported in both their array
// and keyed form. The second return value is false when the aggregate is
// missing or has no buckets property.
func (r *QueryResult) Buckets(name string) ([]RawBucket, bool) {
	agg, ok := r.RawAggregations()[name]
	if !ok || agg == nil {
		return nil, false
	}

	return decodeBuckets(agg)
}

func decodeBuckets(agg any) ([]RawBucket, bool) {
	data, err := json.Marshal(agg)
	if err != nil {
		return nil, false
	}

	var envelope struct {
		Buckets json.RawMessage `json:"buckets"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || len(envelope.Buckets) == 0 {
		return nil, false
	}

	var list []RawBucket
	if err := json.Unmarshal(envelope.Buckets, &list); err == nil {
		return list, true
	}

	var keyed map[string]RawBucket
	if err := json.Unmarshal(envelope.Buckets, &keyed); err != nil {
		return nil, false
	}

	keys := make([]string, 0, len(keyed))
	for k := range keyed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	list = make([]RawBucket, 0, len(keyed))
	for _, k := range keys {
		b := keyed[k]
		if b.Key == nil {
			b.Key = k
		}
		list = append(list, b)
	}

	return list, true
}

// Stats is the outcome of a stats aggregation.
type Stats struct {
	Count int64   `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	Sum   float64 `json:"sum"`
}

func decodeStats(agg any) (Stats, bool) {
	data, err := json.Marshal(agg)
	if err != nil {
		return Stats{}, false
	}

	var raw struct {
		Count int64    `json:"count"`
		Min   *float64 `json:"min"`
		Max   *float64 `json:"max"`
		Avg   *float64 `json:"avg"`
		Sum   *float64 `json:"sum"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Stats{}, false
	}

	s := Stats{Count: raw.Count}
	if raw.Min != nil {
		s.Min = *raw.Min
	}
	if raw.Max != nil {
		s.Max = *raw.Max
	}
	if raw.Avg != nil {
		s.Avg = *raw.Avg
	}
	if raw.Sum != nil {
		s.Sum = *raw.Sum
	}

	return s, true
}

// Result is the outcome of an Endpoint execution: the raw search result
// together with the built aggregations.
type Result struct {
	*QueryResult
	request      *SearchRequest
	Aggregations Aggregations
	Pagination   *ResultPagination
	Sorting      *ResultSorting
}

// Request returns the request that produced this result.
func (r *Result) Request() *SearchRequest {
	return r.request
}

// ResultPagination describes the page of hits returned.
type ResultPagination struct {
	Offset   int
	PageSize int
}

// ResultSorting lists the sort options offered for a search and which one
// was applied.
type ResultSorting struct {
	Param   string
	Options []*ResultSortingOption
}

// ResultSortingOption is a single named sort option.
type ResultSortingOption struct {
	Name      string
	Property  string
	Ascending bool
	Selected  bool
}

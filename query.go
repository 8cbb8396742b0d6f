package facetbridge

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/elastic/go-elasticsearch/v8/typedapi/core/search"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
)

// Query is the query context of one search.
//
// It accumulates the Elasticsearch bool query, post filter, aggregations
// and document selection while features and bucket builders run, and is
// handed to the DataProviderFactory so data providers can aggregate over
// the same document set as the search itself.
//
// Example:
//
//	q := facetbridge.NewQuery(params, "catalog_product")
//	q.With(types.Query{
//	    Term: map[string]types.TermQuery{
//	        "visibility": {Value: "search"},
//	    },
//	})
//	req := q.BuildRequest()
type Query struct {
	params       *Parameters
	indices      []string
	text         string
	boolQuery    *types.BoolQuery
	postFilter   *types.Query
	aggregations map[string]types.Aggregations
	selection    *DocumentSelector
}

// NewQuery returns an empty query context for a set of indices.
func NewQuery(params *Parameters, indices ...string) *Query {
	return &Query{
		params:       params,
		indices:      indices,
		boolQuery:    &types.BoolQuery{},
		aggregations: make(map[string]types.Aggregations),
	}
}

// Params returns the request parameters the query was created for.
func (q *Query) Params() *Parameters {
	return q.params
}

// Indices returns the target indices.
func (q *Query) Indices() []string {
	return q.indices
}

// SetIndices replaces the target indices.
func (q *Query) SetIndices(indices ...string) {
	q.indices = indices
}

// Text returns the free text of the search, if any.
func (q *Query) Text() string {
	return q.text
}

// SetText sets the free text of the search.
func (q *Query) SetText(text string) {
	q.text = text
}

// With adds a "must" clause to the bool query.
func (q *Query) With(query types.Query) {
	q.boolQuery.Must = append(q.boolQuery.Must, query)
}

// Without adds a "must_not" clause to the bool query.
func (q *Query) Without(query types.Query) {
	q.boolQuery.MustNot = append(q.boolQuery.MustNot, query)
}

// Boost adds a "should" clause to the bool query.
func (q *Query) Boost(query types.Query) {
	q.boolQuery.Should = append(q.boolQuery.Should, query)
}

// PostFilterWith adds a "must" clause to the post filter, which narrows
// hits after aggregations have been calculated.
func (q *Query) PostFilterWith(query types.Query) {
	if q.postFilter == nil {
		q.postFilter = &types.Query{
			Bool: &types.BoolQuery{},
		}
	}
	q.postFilter.Bool.Must = append(q.postFilter.Bool.Must, query)
}

// Aggregation adds or replaces a named aggregation.
//
// Example:
//
//	field := "color"
//	size := 20
//	q.Aggregation("color_bucket", types.Aggregations{
//	    Terms: &types.TermsAggregation{Field: &field, Size: &size},
//	})
func (q *Query) Aggregation(name string, agg types.Aggregations) {
	q.aggregations[name] = agg
}

// Aggregations returns the declared aggregations keyed by name.
func (q *Query) Aggregations() map[string]types.Aggregations {
	return q.aggregations
}

// RawQuery returns the accumulated bool query.
func (q *Query) RawQuery() *types.Query {
	return &types.Query{
		Bool: q.boolQuery,
	}
}

// Selection returns the document selector, creating it on first use.
func (q *Query) Selection() *DocumentSelector {
	if q.selection == nil {
		q.selection = NewDocumentSelector()
	}
	return q.selection
}

// Clone returns a copy of the query whose clause lists, aggregations
// and selection can be changed without affecting the original.
func (q *Query) Clone() *Query {
	bq := *q.boolQuery
	bq.Must = slices.Clone(q.boolQuery.Must)
	bq.MustNot = slices.Clone(q.boolQuery.MustNot)
	bq.Should = slices.Clone(q.boolQuery.Should)

	c := &Query{
		params:       q.params,
		indices:      slices.Clone(q.indices),
		text:         q.text,
		boolQuery:    &bq,
		aggregations: maps.Clone(q.aggregations),
	}
	if q.postFilter != nil {
		pb := *q.postFilter.Bool
		pb.Must = slices.Clone(q.postFilter.Bool.Must)
		c.postFilter = &types.Query{Bool: &pb}
	}
	if q.selection != nil {
		c.selection = q.selection.clone()
	}

	return c
}

// Build returns the search request as a generic map, mainly for logging
// and tests.
func (q *Query) Build() map[string]any {
	data, _ := json.Marshal(q.BuildRequest())
	var result map[string]any
	_ = json.Unmarshal(data, &result)

	return result
}

// BuildRequest constructs the typed Elasticsearch search request.
func (q *Query) BuildRequest() *search.Request {
	request := &search.Request{
		Query: q.RawQuery(),
	}

	if q.postFilter != nil {
		request.PostFilter = q.postFilter
	}

	if len(q.aggregations) > 0 {
		request.Aggregations = q.aggregations
	}

	selection := q.Selection()
	size := selection.pageSize
	from := selection.offset
	request.Size = &size
	request.From = &from

	if selection.sort != nil {
		request.Sort = selection.sort
	}

	if len(selection.inclusions) > 0 || len(selection.exclusions) > 0 {
		request.Source_ = types.SourceFilter{
			Excludes: selection.exclusions,
			Includes: selection.inclusions,
		}
	}

	return request
}

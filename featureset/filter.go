package featureset

import (
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/reveald/facetbridge"
)

// FilterFeature narrows a search to the values selected for a property
// in the request parameters. Multiple values match any of them.
type FilterFeature struct {
	property   string
	agg        AggregationFeature
	postFilter bool
}

type FilterFeatureOption func(*FilterFeature)

// WithPostFilter applies the filter after aggregations are calculated, so
// facet counts are not narrowed by the property's own selection.
func WithPostFilter() FilterFeatureOption {
	return func(ff *FilterFeature) {
		ff.postFilter = true
	}
}

// WithAggregationOption configures the keyword field of the filter.
func WithAggregationOption(opts ...AggregationOption) FilterFeatureOption {
	return func(ff *FilterFeature) {
		ff.agg = buildAggregationFeature(opts...)
	}
}

func NewFilterFeature(property string, opts ...FilterFeatureOption) *FilterFeature {
	ff := &FilterFeature{
		property: property,
		agg:      buildAggregationFeature(),
	}

	for _, opt := range opts {
		opt(ff)
	}

	return ff
}

func (ff *FilterFeature) Process(q *facetbridge.Query, next facetbridge.FeatureFunc) (*facetbridge.Result, error) {
	ff.build(q)
	return next(q)
}

func (ff *FilterFeature) build(q *facetbridge.Query) {
	p, err := q.Params().Get(ff.property)
	if err != nil || len(p.Values()) == 0 {
		return
	}

	field := ff.agg.field(ff.property)
	should := make([]types.Query, 0, len(p.Values()))
	for _, v := range p.Values() {
		should = append(should, types.Query{
			Term: map[string]types.TermQuery{
				field: {Value: v},
			},
		})
	}

	filter := types.Query{
		Bool: &types.BoolQuery{
			Should: should,
		},
	}

	if ff.postFilter {
		q.PostFilterWith(filter)
		return
	}
	q.With(filter)
}

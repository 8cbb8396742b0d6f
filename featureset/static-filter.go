package featureset

import (
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/reveald/facetbridge"
)

// StaticFilterFeature adds a fixed filter to every search, e.g. only
// visible or in-stock products.
type StaticFilterFeature struct {
	query *types.BoolQuery
}

type StaticFilterOption func(*types.BoolQuery)

// WithRequiredProperty requires documents to have a value for property.
func WithRequiredProperty(property string) StaticFilterOption {
	return func(query *types.BoolQuery) {
		query.Must = append(query.Must, types.Query{
			Exists: &types.ExistsQuery{Field: property},
		})
	}
}

// WithRequiredValue requires property to equal value.
func WithRequiredValue(property string, value types.FieldValue) StaticFilterOption {
	return func(query *types.BoolQuery) {
		query.Must = append(query.Must, types.Query{
			Term: map[string]types.TermQuery{
				property: {Value: value},
			},
		})
	}
}

func NewStaticFilterFeature(opts ...StaticFilterOption) *StaticFilterFeature {
	if len(opts) == 0 {
		return &StaticFilterFeature{nil}
	}

	query := &types.BoolQuery{}
	for _, opt := range opts {
		opt(query)
	}

	return &StaticFilterFeature{query}
}

func (sff *StaticFilterFeature) Process(q *facetbridge.Query, next facetbridge.FeatureFunc) (*facetbridge.Result, error) {
	if sff.query != nil {
		q.With(types.Query{Bool: sff.query})
	}

	return next(q)
}

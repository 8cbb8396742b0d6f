package featureset

import (
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/reveald/facetbridge"
)

// QueryFilterFeature adds a query_string query for the free text of a
// search, taken from a request parameter or, when the parameter is
// absent, from the search text itself.
//
// Example:
//
//	queryFilter := featureset.NewQueryFilterFeature(
//	    featureset.WithQueryParam("search"),
//	    featureset.WithFields("name", "description"),
//	)
type QueryFilterFeature struct {
	name   string
	fields []string
}

type QueryFilterOption func(*QueryFilterFeature)

// WithQueryParam sets the request parameter holding the query string.
func WithQueryParam(name string) QueryFilterOption {
	return func(qff *QueryFilterFeature) {
		qff.name = name
	}
}

// WithFields limits the query to the given fields.
func WithFields(fields ...string) QueryFilterOption {
	return func(qff *QueryFilterFeature) {
		qff.fields = fields
	}
}

// NewQueryFilterFeature uses the "q" parameter and searches all fields by default.
func NewQueryFilterFeature(opts ...QueryFilterOption) *QueryFilterFeature {
	qff := &QueryFilterFeature{
		name:   "q",
		fields: []string{},
	}

	for _, opt := range opts {
		opt(qff)
	}

	return qff
}

func (qff *QueryFilterFeature) Process(q *facetbridge.Query, next facetbridge.FeatureFunc) (*facetbridge.Result, error) {
	text := q.Text()
	if v, err := q.Params().Get(qff.name); err == nil {
		text = v.Value()
	}

	if text == "" {
		return next(q)
	}

	lenient := true
	query := types.Query{
		QueryString: &types.QueryStringQuery{
			Query:   text,
			Lenient: &lenient,
		},
	}
	if len(qff.fields) > 0 {
		query.QueryString.Fields = qff.fields
	}

	q.With(query)
	return next(q)
}

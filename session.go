package facetbridge

import "context"

// Session is the set-then-build form of an AggregationBuilder.
//
// The caller sets the query context and facet overrides immediately before
// each Build. Build consumes the query context: it is nil again once Build
// returns, whatever the outcome. Facet overrides stay as set until replaced.
//
// A Session is not safe for concurrent use; serialize builds per session.
//
// Example:
//
//	s := facetbridge.NewSession(builder)
//	s.SetFacets(facetbridge.FacetOverrides{"color": {"Red": 5}})
//	aggs, err := s.SetQuery(q).Build(ctx, req, raw)
type Session struct {
	builder *AggregationBuilder
	query   *Query
	facets  FacetOverrides
}

// NewSession returns a session building with builder.
func NewSession(builder *AggregationBuilder) *Session {
	return &Session{
		builder: builder,
	}
}

// SetQuery sets the query context for the next Build.
func (s *Session) SetQuery(q *Query) *Session {
	s.query = q
	return s
}

// Query returns the query context set for the next Build, if any.
func (s *Session) Query() *Query {
	return s.query
}

// SetFacets sets the facet overrides.
func (s *Session) SetFacets(f FacetOverrides) {
	s.facets = f
}

// Facets returns the current facet overrides.
func (s *Session) Facets() FacetOverrides {
	return s.facets
}

// Build builds the aggregations of req and clears the query context.
func (s *Session) Build(ctx context.Context, req *SearchRequest, raw *QueryResult) (Aggregations, error) {
	defer func() {
		s.query = nil
	}()

	return s.builder.Build(ctx, req, raw, WithQuery(s.query), WithFacets(s.facets))
}

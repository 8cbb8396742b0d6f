package featureset

import "github.com/reveald/facetbridge"

// PropertyExclusionFeature drops the given properties from hit sources.
type PropertyExclusionFeature struct {
	properties []string
}

func NewPropertyExclusionFeature(properties ...string) *PropertyExclusionFeature {
	return &PropertyExclusionFeature{properties}
}

func (pef *PropertyExclusionFeature) Process(q *facetbridge.Query, next facetbridge.FeatureFunc) (*facetbridge.Result, error) {
	q.Selection().Update(facetbridge.WithoutProperties(pef.properties...))

	return next(q)
}

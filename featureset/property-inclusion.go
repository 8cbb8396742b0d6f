package featureset

import "github.com/reveald/facetbridge"

// PropertyInclusionFeature limits hit sources to the given properties.
type PropertyInclusionFeature struct {
	properties []string
}

func NewPropertyInclusionFeature(properties ...string) *PropertyInclusionFeature {
	return &PropertyInclusionFeature{properties}
}

func (pif *PropertyInclusionFeature) Process(q *facetbridge.Query, next facetbridge.FeatureFunc) (*facetbridge.Result, error) {
	q.Selection().Update(facetbridge.WithProperties(pif.properties...))

	return next(q)
}

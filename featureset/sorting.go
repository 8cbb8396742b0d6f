package featureset

import (
	"sort"

	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/sortorder"
	"github.com/reveald/facetbridge"
)

type sortingOption struct {
	property  string
	ascending bool
}

// SortingFeature applies one of a set of named sort options selected by a
// request parameter, and reports the options on the result.
type SortingFeature struct {
	param         string
	options       map[string]sortingOption
	defaultOption string
}

type SortingOption func(*SortingFeature)

func WithSortOption(name, property string, ascending bool) SortingOption {
	return func(sf *SortingFeature) {
		sf.options[name] = sortingOption{
			property,
			ascending,
		}
	}
}

func WithDefaultSortOption(name string) SortingOption {
	return func(sf *SortingFeature) {
		sf.defaultOption = name
	}
}

func NewSortingFeature(param string, opts ...SortingOption) *SortingFeature {
	sf := &SortingFeature{
		param:   param,
		options: make(map[string]sortingOption),
	}

	for _, opt := range opts {
		opt(sf)
	}

	return sf
}

func (sf *SortingFeature) Process(q *facetbridge.Query, next facetbridge.FeatureFunc) (*facetbridge.Result, error) {
	sf.build(q)

	r, err := next(q)
	if err != nil {
		return nil, err
	}

	return sf.handle(q.Params(), r)
}

func (sf *SortingFeature) selected(params *facetbridge.Parameters) string {
	if params.Has(sf.param) {
		v, err := params.Get(sf.param)
		if err == nil {
			return v.Value()
		}
	}

	return sf.defaultOption
}

func (sf *SortingFeature) build(q *facetbridge.Query) {
	key := sf.selected(q.Params())
	if key == "" {
		return
	}

	option, ok := sf.options[key]
	if !ok {
		return
	}

	order := sortorder.Desc
	if option.ascending {
		order = sortorder.Asc
	}

	q.Selection().Update(facetbridge.WithSort(option.property, order))
}

func (sf *SortingFeature) handle(params *facetbridge.Parameters, result *facetbridge.Result) (*facetbridge.Result, error) {
	selected := sf.selected(params)

	names := make([]string, 0, len(sf.options))
	for k := range sf.options {
		names = append(names, k)
	}
	sort.Strings(names)

	options := make([]*facetbridge.ResultSortingOption, 0, len(names))
	for _, k := range names {
		v := sf.options[k]
		options = append(options, &facetbridge.ResultSortingOption{
			Name:      k,
			Property:  v.property,
			Ascending: v.ascending,
			Selected:  selected == k,
		})
	}

	result.Sorting = &facetbridge.ResultSorting{
		Param:   sf.param,
		Options: options,
	}

	return result, nil
}

package facetbridge

import (
	"slices"

	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/sortorder"
)

// DocumentSelector holds the parts of a search that select documents
// rather than match them: page size, offset, sort and source filtering.
type DocumentSelector struct {
	inclusions []string
	exclusions []string
	offset     int
	pageSize   int
	sort       []types.SortCombinations
}

const (
	defaultPageSize = 24
)

// Selector is a functional option updating a DocumentSelector.
type Selector func(*DocumentSelector)

// WithProperties adds document fields to include in hits ("_source.includes").
func WithProperties(properties ...string) Selector {
	return func(s *DocumentSelector) {
		s.inclusions = append(s.inclusions, properties...)
	}
}

// WithoutProperties adds document fields to exclude from hits ("_source.excludes").
func WithoutProperties(properties ...string) Selector {
	return func(s *DocumentSelector) {
		s.exclusions = append(s.exclusions, properties...)
	}
}

// WithPageSize sets the number of hits to return.
// A page size of zero returns aggregations only.
func WithPageSize(size int) Selector {
	return func(s *DocumentSelector) {
		s.pageSize = size
	}
}

// WithOffset sets the number of hits to skip.
func WithOffset(offset int) Selector {
	return func(s *DocumentSelector) {
		s.offset = offset
	}
}

// WithSort appends a field sort.
//
// Example:
//
//	selector := facetbridge.NewDocumentSelector(
//	    facetbridge.WithSort("price", sortorder.Desc),
//	)
func WithSort(field string, order sortorder.SortOrder) Selector {
	return func(s *DocumentSelector) {
		s.sort = append(s.sort, types.SortOptions{
			SortOptions: map[string]types.FieldSort{
				field: {
					Order: &order,
				},
			},
		})
	}
}

// NewDocumentSelector returns a selector with the default page size.
func NewDocumentSelector(selectors ...Selector) *DocumentSelector {
	s := &DocumentSelector{
		inclusions: []string{},
		exclusions: []string{},
		offset:     0,
		pageSize:   defaultPageSize,
		sort:       nil,
	}

	for _, sel := range selectors {
		sel(s)
	}

	return s
}

// Update applies selectors to an existing DocumentSelector.
func (ds *DocumentSelector) Update(selectors ...Selector) {
	for _, selector := range selectors {
		selector(ds)
	}
}

// PageSize returns the configured page size.
func (ds *DocumentSelector) PageSize() int {
	return ds.pageSize
}

// Offset returns the configured offset.
func (ds *DocumentSelector) Offset() int {
	return ds.offset
}

// Sort returns the configured sort combinations.
func (ds *DocumentSelector) Sort() []types.SortCombinations {
	return ds.sort
}

func (ds *DocumentSelector) clone() *DocumentSelector {
	c := *ds
	c.inclusions = slices.Clone(ds.inclusions)
	c.exclusions = slices.Clone(ds.exclusions)
	c.sort = slices.Clone(ds.sort)

	return &c
}

package featureset

import (
	"strconv"

	"github.com/reveald/facetbridge"
)

const (
	defaultPageSize int = 24
)

// PaginationFeature reads "offset" and "size" request parameters and
// reports the applied page on the result.
type PaginationFeature struct {
	pageSize    int
	maxPageSize int
	maxOffset   int
}

type PaginationOption func(*PaginationFeature)

func WithPageSize(pageSize int) PaginationOption {
	return func(pf *PaginationFeature) {
		pf.pageSize = pageSize
	}
}

func WithMaxPageSize(maxPageSize int) PaginationOption {
	return func(pf *PaginationFeature) {
		pf.maxPageSize = maxPageSize
	}
}

func WithMaxOffset(maxOffset int) PaginationOption {
	return func(pf *PaginationFeature) {
		pf.maxOffset = maxOffset
	}
}

func NewPaginationFeature(opts ...PaginationOption) *PaginationFeature {
	pf := &PaginationFeature{
		pageSize:    defaultPageSize,
		maxPageSize: defaultPageSize,
		maxOffset:   -1,
	}

	for _, opt := range opts {
		opt(pf)
	}

	return pf
}

func (pf *PaginationFeature) Process(q *facetbridge.Query, next facetbridge.FeatureFunc) (*facetbridge.Result, error) {
	offset, pageSize := pf.page(q.Params())

	q.Selection().Update(
		facetbridge.WithPageSize(pageSize),
		facetbridge.WithOffset(offset))

	r, err := next(q)
	if err != nil {
		return nil, err
	}

	r.Pagination = &facetbridge.ResultPagination{
		Offset:   offset,
		PageSize: pageSize,
	}
	return r, nil
}

func (pf *PaginationFeature) page(params *facetbridge.Parameters) (int, int) {
	offset, err := toValue(params, "offset")
	if err != nil || offset < 0 || (pf.maxOffset > 0 && offset > pf.maxOffset) {
		offset = 0
	}

	pageSize, err := toValue(params, "size")
	if err != nil || pageSize < 0 || pageSize > pf.maxPageSize {
		pageSize = pf.pageSize
	}

	return offset, pageSize
}

func toValue(params *facetbridge.Parameters, name string) (int, error) {
	p, err := params.Get(name)
	if err != nil {
		return -1, err
	}

	return strconv.Atoi(p.Value())
}

package facetbridge

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// RangeMinParameterName is the suffix marking a lower range bound, e.g. "price.min"
	RangeMinParameterName string = "min"
	// RangeMaxParameterName is the suffix marking an upper range bound, e.g. "price.max"
	RangeMaxParameterName string = "max"
)

// BucketType selects which registered BucketBuilder handles a bucket.
type BucketType string

const (
	// TermBucket aggregates distinct attribute values.
	TermBucket BucketType = "termBucket"
	// DynamicBucket aggregates numeric values into ranges, e.g. price.
	DynamicBucket BucketType = "dynamicBucket"
)

// BucketRequest identifies one requested aggregation.
//
// Field is the attribute code the bucket aggregates, Type selects the
// builder and Name is the key of the bucket in the built Aggregations.
//
// Example:
//
//	bucket := facetbridge.BucketRequest{
//	    Field: "color",
//	    Type:  facetbridge.TermBucket,
//	    Name:  "color_bucket",
//	}
type BucketRequest struct {
	Field string
	Type  BucketType
	Name  string
}

// Dimension is a named scope value of a search, e.g. the store view.
type Dimension struct {
	Name  string
	Value string
}

// Dimensions is an ordered collection of request dimensions.
type Dimensions []Dimension

// Get returns the value of the first dimension with the given name.
func (d Dimensions) Get(name string) (string, bool) {
	for _, dim := range d {
		if dim.Name == name {
			return dim.Value, true
		}
	}

	return "", false
}

// SearchRequest describes one search for which aggregations are built.
//
// Index names the Elasticsearch index (and the data provider) to use,
// Text is the full text query forwarded to an external facet source and
// Buckets lists the aggregations to produce, in order.
//
// Example:
//
//	req := &facetbridge.SearchRequest{
//	    Index: "catalog_product",
//	    Text:  "shirt",
//	    Dimensions: facetbridge.Dimensions{{Name: "scope", Value: "1"}},
//	    Buckets: []facetbridge.BucketRequest{
//	        {Field: "color", Type: facetbridge.TermBucket, Name: "color_bucket"},
//	        {Field: "price", Type: facetbridge.DynamicBucket, Name: "price_bucket"},
//	    },
//	    Params: facetbridge.NewParameters(facetbridge.NewParameter("color", "Red")),
//	}
type SearchRequest struct {
	Index      string
	Text       string
	Dimensions Dimensions
	Buckets    []BucketRequest
	Params     *Parameters
}

// Fields returns the distinct bucket fields of the request in request order.
func (r *SearchRequest) Fields() []string {
	seen := make(map[string]struct{}, len(r.Buckets))
	fields := make([]string, 0, len(r.Buckets))
	for _, b := range r.Buckets {
		if _, ok := seen[b.Field]; ok {
			continue
		}
		seen[b.Field] = struct{}{}
		fields = append(fields, b.Field)
	}

	return fields
}

// Parameter is a filter value of a search request.
//
// A name with a ".min" or ".max" suffix is parsed as a range bound
// of the property without the suffix.
//
// Example:
//
//	color := facetbridge.NewParameter("color", "Red", "Blue")
//	minPrice := facetbridge.NewParameter("price.min", "50")
//	// minPrice.Name() == "price"
type Parameter struct {
	name   string
	values []string
	min    float64
	max    float64
	wmin   bool
	wmax   bool
}

// NewParameter creates a Parameter, detecting range suffixes on the name.
func NewParameter(name string, values ...string) Parameter {
	pv := Parameter{}
	pv.name = name
	pv.values = values

	minSuffix := "." + RangeMinParameterName
	maxSuffix := "." + RangeMaxParameterName

	var err error
	for _, v := range values {
		switch {
		case strings.HasSuffix(name, minSuffix):
			pv.min, err = strconv.ParseFloat(v, 64)
			pv.wmin = err == nil
			pv.name = strings.TrimSuffix(name, minSuffix)
		case strings.HasSuffix(name, maxSuffix):
			pv.max, err = strconv.ParseFloat(v, 64)
			pv.wmax = err == nil
			pv.name = strings.TrimSuffix(name, maxSuffix)
		}
	}

	return pv
}

// IsRangeValue reports whether at least one range bound parsed.
func (pv Parameter) IsRangeValue() bool {
	return pv.wmin || pv.wmax
}

// Min returns the lower range bound and whether it is set.
func (pv Parameter) Min() (float64, bool) {
	return pv.min, pv.wmin
}

// Max returns the upper range bound and whether it is set.
func (pv Parameter) Max() (float64, bool) {
	return pv.max, pv.wmax
}

// Merge combines the values and range bounds of two parameters.
func (pv Parameter) Merge(m Parameter) Parameter {
	pv.values = append(pv.values, m.values...)

	if !pv.wmin && m.wmin {
		pv.min = m.min
		pv.wmin = true
	}
	if !pv.wmax && m.wmax {
		pv.max = m.max
		pv.wmax = true
	}

	return pv
}

// Name returns the parameter name without range suffix.
func (pv Parameter) Name() string {
	return pv.name
}

// Value returns the last value of the parameter, or "" when empty.
func (pv Parameter) Value() string {
	if len(pv.values) == 0 {
		return ""
	}

	return pv.values[len(pv.values)-1]
}

// Values returns all values of the parameter.
func (pv Parameter) Values() []string {
	return pv.values
}

// Parameters holds the filter parameters of a search request, keyed by name.
type Parameters struct {
	params map[string]Parameter
}

// NewParameters creates a parameter set, merging parameters sharing a name.
//
// Example:
//
//	params := facetbridge.NewParameters(
//	    facetbridge.NewParameter("color", "Red"),
//	    facetbridge.NewParameter("price.min", "10"),
//	    facetbridge.NewParameter("price.max", "100"),
//	)
func NewParameters(params ...Parameter) *Parameters {
	p := &Parameters{
		params: make(map[string]Parameter),
	}

	for _, param := range params {
		p.Append(param)
	}

	return p
}

// Append adds a parameter, merging it with an existing one of the same name.
func (p *Parameters) Append(param Parameter) *Parameters {
	if existing, ok := p.params[param.name]; ok {
		param = param.Merge(existing)
	}

	p.params[param.name] = param
	return p
}

// Has reports whether a parameter with the given name exists.
// It is safe to call on a nil receiver.
func (p *Parameters) Has(name string) bool {
	if p == nil {
		return false
	}

	_, ok := p.params[name]
	return ok
}

// Get returns the parameter with the given name.
func (p *Parameters) Get(name string) (Parameter, error) {
	if p == nil {
		return Parameter{}, fmt.Errorf("no such parameter: %s", name)
	}

	param, ok := p.params[name]
	if !ok {
		return Parameter{}, fmt.Errorf("no such parameter: %s", name)
	}

	return param, nil
}

// GetAll returns all parameters keyed by name.
func (p *Parameters) GetAll() map[string]Parameter {
	if p == nil {
		return nil
	}

	return p.params
}

// Set adds or replaces a parameter.
func (p *Parameters) Set(name string, values ...string) {
	param := NewParameter(name, values...)
	p.params[param.name] = param
}

// Del removes a parameter by name.
func (p *Parameters) Del(name string) {
	delete(p.params, name)
}

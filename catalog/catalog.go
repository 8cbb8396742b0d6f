// Package catalog reads product attribute metadata from a YAML file.
//
// A catalog file lists attributes and, for select-like attributes, their
// options:
//
//	attributes:
//	  - code: color
//	    source: true
//	    options:
//	      - id: "12"
//	        label: Red
//	  - code: name
package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/reveald/facetbridge"
	"gopkg.in/yaml.v3"
)

type file struct {
	Attributes []attributeSpec `yaml:"attributes"`
}

type attributeSpec struct {
	Code    string       `yaml:"code"`
	Source  bool         `yaml:"source"`
	Options []optionSpec `yaml:"options"`
}

type optionSpec struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
}

// Catalog is a facetbridge.Product backed by static attribute metadata.
// It is read-only after parsing and safe for concurrent use.
type Catalog struct {
	attributes map[string]*attribute
}

// Parse reads a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{
		attributes: make(map[string]*attribute, len(f.Attributes)),
	}
	for i, def := range f.Attributes {
		if def.Code == "" {
			return nil, fmt.Errorf("attribute %d has no code", i)
		}
		if _, ok := c.attributes[def.Code]; ok {
			return nil, fmt.Errorf("duplicate attribute %q", def.Code)
		}

		c.attributes[def.Code] = &attribute{
			code:    def.Code,
			source:  def.Source,
			options: def.Options,
		}
	}

	return c, nil
}

// Load reads a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	return Parse(data)
}

// Attribute implements facetbridge.Product.
func (c *Catalog) Attribute(_ context.Context, code string) (facetbridge.Attribute, error) {
	a, ok := c.attributes[code]
	if !ok {
		return nil, nil
	}

	return a, nil
}

// Create implements facetbridge.ProductFactory, returning the catalog itself.
func (c *Catalog) Create(context.Context) (facetbridge.Product, error) {
	return c, nil
}

// NewFileFactory returns a ProductFactory loading the catalog at path on
// every Create.
func NewFileFactory(path string) facetbridge.ProductFactory {
	return facetbridge.ProductFactoryFunc(func(context.Context) (facetbridge.Product, error) {
		return Load(path)
	})
}

type attribute struct {
	code    string
	source  bool
	options []optionSpec
}

func (a *attribute) Code() string {
	return a.code
}

func (a *attribute) UsesSource() bool {
	return a.source
}

func (a *attribute) Source() facetbridge.OptionSource {
	if !a.source {
		return nil
	}

	return optionSource(a.options)
}

type optionSource []optionSpec

// OptionID matches the label exactly first, then ignoring case.
func (s optionSource) OptionID(_ context.Context, label string) (string, error) {
	for _, o := range s {
		if o.Label == label {
			return o.ID, nil
		}
	}

	for _, o := range s {
		if strings.EqualFold(o.Label, label) {
			return o.ID, nil
		}
	}

	return "", nil
}

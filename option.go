package facetbridge

import (
	"context"
	"sync"
)

// OptionSource resolves option labels of a select-like attribute.
type OptionSource interface {
	// OptionID returns the option id for the label, or "" when no option matches.
	OptionID(ctx context.Context, label string) (string, error)
}

// Attribute is the catalog metadata of a product attribute.
type Attribute interface {
	Code() string
	UsesSource() bool
	Source() OptionSource
}

// Product gives access to product attribute metadata.
type Product interface {
	// Attribute returns the attribute with the given code, or nil when the
	// catalog does not define it.
	Attribute(ctx context.Context, code string) (Attribute, error)
}

// ProductFactory creates Product handles.
type ProductFactory interface {
	Create(ctx context.Context) (Product, error)
}

// ProductFactoryFunc adapts a function to a ProductFactory.
type ProductFactoryFunc func(ctx context.Context) (Product, error)

// Create calls f.
func (f ProductFactoryFunc) Create(ctx context.Context) (Product, error) {
	return f(ctx)
}

// OptionLookup translates an attribute value label into its option id.
type OptionLookup interface {
	OptionIDByLabel(ctx context.Context, attributeCode, label string) (string, error)
}

// OptionResolver is the catalog backed OptionLookup.
//
// The product handle used to reach attribute metadata is created on the
// first lookup and reused for the lifetime of the resolver.
type OptionResolver struct {
	factory ProductFactory

	mu      sync.Mutex
	product Product
}

// NewOptionResolver returns an OptionResolver using factory for the product handle.
func NewOptionResolver(factory ProductFactory) *OptionResolver {
	return &OptionResolver{
		factory: factory,
	}
}

// OptionIDByLabel returns the option id of label for the given attribute.
//
// It returns "" without error when the attribute does not exist or does
// not use an option source. Errors of the catalog are returned as is.
func (r *OptionResolver) OptionIDByLabel(ctx context.Context, attributeCode, label string) (string, error) {
	product, err := r.getProduct(ctx)
	if err != nil {
		return "", err
	}

	attr, err := product.Attribute(ctx, attributeCode)
	if err != nil {
		return "", err
	}
	if attr == nil || !attr.UsesSource() {
		return "", nil
	}

	source := attr.Source()
	if source == nil {
		return "", nil
	}

	return source.OptionID(ctx, label)
}

func (r *OptionResolver) getProduct(ctx context.Context) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.product == nil {
		p, err := r.factory.Create(ctx)
		if err != nil {
			return nil, err
		}
		r.product = p
	}

	return r.product, nil
}

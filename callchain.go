package facetbridge

type callchained struct {
	fn   func(*Query, FeatureFunc) (*Result, error)
	next *callchained
}

func (cc *callchained) add(f Feature) *callchained {
	return &callchained{
		fn:   f.Process,
		next: cc,
	}
}

type callchain struct {
	root *callchained
}

func (cc *callchain) add(f Feature) {
	if cc.root == nil {
		cc.root = &callchained{}
	}

	cc.root = cc.root.add(f)
}

// exec runs the chain with fn as the innermost step. Features run in
// registration order, each wrapping the ones registered after it.
func (cc *callchain) exec(q *Query, fn FeatureFunc) (*Result, error) {
	n := cc.root
	for n != nil && n.fn != nil {
		fn = func(ff FeatureFunc, c *callchained) FeatureFunc {
			return func(q *Query) (*Result, error) {
				return c.fn(q, ff)
			}
		}(fn, n)
		n = n.next
	}

	return fn(q)
}

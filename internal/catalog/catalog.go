// Package catalog models a published cloud-image metadata catalog and
// answers release queries against it: supported products, the current
// default product, and free-form release identifier lookups.
package catalog

import (
	"strings"

	"github.com/japence/simplestream-parser/internal/jsondoc"
)

const (
	// DefaultArchitecture is the product architecture suffix kept by the
	// catalog filter.
	DefaultArchitecture = "amd64"

	// DefaultImageTag is the artifact name whose digest is reported.
	DefaultImageTag = "disk1.img"

	// DefaultDigestField is the digest field read from the image artifact.
	DefaultDigestField = "sha256"
)

// Options parameterize a Catalog. Zero fields fall back to the published
// Ubuntu cloud-image defaults.
type Options struct {
	Architecture string
	ImageTag     string
	DigestField  string
}

func (o Options) withDefaults() Options {
	if o.Architecture == "" {
		o.Architecture = DefaultArchitecture
	}
	if o.ImageTag == "" {
		o.ImageTag = DefaultImageTag
	}
	if o.DigestField == "" {
		o.DigestField = DefaultDigestField
	}
	return o
}

// Catalog is a read-only query surface over one parsed catalog document.
// It borrows the document and must not outlive it.
type Catalog struct {
	doc  *jsondoc.Document
	opts Options
}

// New wraps an already parsed document.
func New(doc *jsondoc.Document, opts Options) *Catalog {
	return &Catalog{doc: doc, opts: opts.withDefaults()}
}

// Parse decodes raw catalog text and wraps it.
func Parse(data []byte, opts Options) (*Catalog, error) {
	doc, err := jsondoc.Parse(data)
	if err != nil {
		return nil, err
	}
	return New(doc, opts), nil
}

// Products returns the products whose key carries the configured
// architecture suffix, in document order. The slice is rebuilt on every
// call; iterating it has no side effects on the catalog.
func (c *Catalog) Products() ([]Product, error) {
	products, err := jsondoc.Object(c.doc.Root(), "products")
	if err != nil {
		return nil, err
	}

	var ret []Product
	for _, name := range jsondoc.MemberNames(products) {
		if !strings.HasSuffix(name, c.opts.Architecture) {
			continue
		}
		node, err := jsondoc.Object(products, name)
		if err != nil {
			return nil, err
		}
		ret = append(ret, Product{node: node, opts: c.opts})
	}
	return ret, nil
}

// SupportedProducts filters Products down to entries marked supported,
// preserving document order.
func (c *Catalog) SupportedProducts() ([]Product, error) {
	products, err := c.Products()
	if err != nil {
		return nil, err
	}

	var ret []Product
	for _, product := range products {
		supported, err := product.Supported()
		if err != nil {
			return nil, err
		}
		if supported {
			ret = append(ret, product)
		}
	}
	return ret, nil
}

// CurrentProduct returns the first product in document order whose raw
// aliases field contains "default". ok is false when no product qualifies;
// the caller must branch on it before touching the view.
func (c *Catalog) CurrentProduct() (*Product, bool, error) {
	products, err := c.Products()
	if err != nil {
		return nil, false, err
	}

	for i := range products {
		aliases, err := products[i].Aliases()
		if err != nil {
			return nil, false, err
		}
		if strings.Contains(aliases, "default") {
			return &products[i], true, nil
		}
	}
	return nil, false, nil
}

// FindProduct resolves a free-form release identifier to a product. Each
// product is tried in document order: first against its alias tokens, then
// against its version string. Matching is byte-exact; no case folding or
// trimming is applied. ok is false when no product matches.
func (c *Catalog) FindProduct(release string) (*Product, bool, error) {
	products, err := c.Products()
	if err != nil {
		return nil, false, err
	}

	for i := range products {
		aliases, err := products[i].Aliases()
		if err != nil {
			return nil, false, err
		}
		// "lts" is shared by several products and never identifies
		// one by itself.
		for _, alias := range strings.Split(aliases, ",") {
			if alias == "lts" {
				continue
			}
			if alias == release {
				return &products[i], true, nil
			}
		}

		// The identifier may embed the version, e.g. "Ubuntu-24.04".
		version, err := products[i].Version()
		if err != nil {
			return nil, false, err
		}
		if strings.Contains(release, version) {
			return &products[i], true, nil
		}
	}
	return nil, false, nil
}

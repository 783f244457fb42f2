package catalog

import (
	"fmt"

	"github.com/japence/simplestream-parser/internal/jsondoc"
)

// RevisionNotFoundError reports an explicitly requested revision id that is
// not present in a product's versions mapping. It is fatal only for the
// lookup that named the revision.
type RevisionNotFoundError struct {
	Revision string
}

func (e *RevisionNotFoundError) Error() string {
	return fmt.Sprintf("revision %q not found", e.Revision)
}

// Product is a read-only view over one release+architecture entry of the
// catalog. Products are handed out by Catalog and borrow its document.
type Product struct {
	node *jsondoc.Node
	opts Options
}

// Supported reports whether the product is currently supported.
func (p Product) Supported() (bool, error) {
	return jsondoc.Bool(p.node, "supported")
}

// Aliases returns the raw comma-separated alias string.
func (p Product) Aliases() (string, error) {
	return jsondoc.String(p.node, "aliases")
}

// Release returns the short release codename.
func (p Product) Release() (string, error) {
	return jsondoc.String(p.node, "release")
}

// ReleaseTitle returns the display name of the release.
func (p Product) ReleaseTitle() (string, error) {
	return jsondoc.String(p.node, "release_title")
}

// Version returns the dotted version string.
func (p Product) Version() (string, error) {
	return jsondoc.String(p.node, "version")
}

// Pubname returns the canonical published name of the given revision. An
// empty revision selects the insertion-order-last entry of the versions
// mapping.
func (p Product) Pubname(revision string) (string, error) {
	rev, err := p.revision(revision)
	if err != nil {
		return "", err
	}
	return jsondoc.String(rev, "pubname")
}

// ImageDigest returns the digest of the configured image artifact for the
// given revision. An empty revision selects the insertion-order-last entry
// of the versions mapping.
func (p Product) ImageDigest(revision string) (string, error) {
	rev, err := p.revision(revision)
	if err != nil {
		return "", err
	}
	items, err := jsondoc.Object(rev, "items")
	if err != nil {
		return "", err
	}
	image, err := jsondoc.Object(items, p.opts.ImageTag)
	if err != nil {
		return "", err
	}
	return jsondoc.String(image, p.opts.DigestField)
}

// revision resolves a revision entry of the versions mapping. The empty id
// selects the last-inserted entry, which the upstream publisher orders by
// recency. An explicit id must be present verbatim.
func (p Product) revision(id string) (*jsondoc.Node, error) {
	versions, err := jsondoc.Object(p.node, "versions")
	if err != nil {
		return nil, err
	}

	if id == "" {
		id, err = jsondoc.LastMemberName(versions)
		if err != nil {
			return nil, err
		}
		return jsondoc.Object(versions, id)
	}

	rev, err := jsondoc.Object(versions, id)
	if err != nil {
		return nil, &RevisionNotFoundError{Revision: id}
	}
	return rev, nil
}

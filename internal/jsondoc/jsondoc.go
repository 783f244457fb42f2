// Package jsondoc parses a JSON document into a read-only tree that keeps
// object member insertion order, and provides type-checked accessors over it.
// The catalog format leans on member order (the last revision is the newest),
// which plain unmarshalling into maps would discard.
package jsondoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ParseError reports malformed document syntax and wraps the underlying
// decoder diagnostic.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse document: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SchemaError reports a field that is absent or has the wrong type. It
// carries the offending key name for diagnostics.
type SchemaError struct {
	Key  string
	Want string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s is not %s", e.Key, e.Want)
}

// EmptyError reports an object with zero members where at least one is
// required.
type EmptyError struct{}

func (e *EmptyError) Error() string {
	return "object has no members"
}

type kind int

const (
	kindNull kind = iota
	kindBool
	kindNumber
	kindString
	kindObject
	kindArray
)

// Node is one value in a parsed document. Nodes are created by Parse and
// never mutated afterwards.
type Node struct {
	kind    kind
	str     string
	boolean bool
	number  json.Number
	members []member
	index   map[string]int
	elems   []*Node
}

type member struct {
	name  string
	value *Node
}

// Document owns a parsed tree. All nodes handed out by the accessors borrow
// from it and must not outlive it.
type Document struct {
	root *Node
}

// Root returns the top-level node of the document.
func (d *Document) Root() *Node {
	return d.root
}

// Parse decodes data into a Document. Malformed input fails with *ParseError.
func Parse(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	root, err := decodeValue(dec)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	// A document is exactly one JSON value.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ParseError{Err: fmt.Errorf("unexpected data after top-level value")}
	}

	return &Document{root: root}, nil
}

func decodeValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (*Node, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t)
	case string:
		return &Node{kind: kindString, str: t}, nil
	case bool:
		return &Node{kind: kindBool, boolean: t}, nil
	case json.Number:
		return &Node{kind: kindNumber, number: t}, nil
	case nil:
		return &Node{kind: kindNull}, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func decodeObject(dec *json.Decoder) (*Node, error) {
	n := &Node{kind: kindObject, index: make(map[string]int)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected member name token %v", tok)
		}

		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}

		// A repeated member name replaces the value but keeps the
		// position of the first occurrence.
		if i, exists := n.index[name]; exists {
			n.members[i].value = value
			continue
		}
		n.index[name] = len(n.members)
		n.members = append(n.members, member{name: name, value: value})
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return n, nil
}

func decodeArray(dec *json.Decoder) (*Node, error) {
	n := &Node{kind: kindArray}
	for dec.More() {
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		n.elems = append(n.elems, value)
	}

	// Consume the closing bracket.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return n, nil
}

// memberValue returns the value of the named member, or nil when n is not an
// object or the member is absent.
func memberValue(n *Node, key string) *Node {
	if n == nil || n.kind != kindObject {
		return nil
	}
	i, ok := n.index[key]
	if !ok {
		return nil
	}
	return n.members[i].value
}

// Object returns the object-valued member key of n. It fails with
// *SchemaError when the member is absent or not an object.
func Object(n *Node, key string) (*Node, error) {
	child := memberValue(n, key)
	if child == nil || child.kind != kindObject {
		return nil, &SchemaError{Key: key, Want: "an object"}
	}
	return child, nil
}

// String returns the string-valued member key of n. It fails with
// *SchemaError when the member is absent or not a string.
func String(n *Node, key string) (string, error) {
	child := memberValue(n, key)
	if child == nil || child.kind != kindString {
		return "", &SchemaError{Key: key, Want: "a string"}
	}
	return child.str, nil
}

// Bool returns the boolean-valued member key of n. It fails with
// *SchemaError when the member is absent or not a boolean.
func Bool(n *Node, key string) (bool, error) {
	child := memberValue(n, key)
	if child == nil || child.kind != kindBool {
		return false, &SchemaError{Key: key, Want: "a boolean"}
	}
	return child.boolean, nil
}

// LastMemberName returns the name of the insertion-order-last member of the
// object n. It fails with *EmptyError when n has zero members (or is not an
// object at all).
func LastMemberName(n *Node) (string, error) {
	if n == nil || n.kind != kindObject || len(n.members) == 0 {
		return "", &EmptyError{}
	}
	return n.members[len(n.members)-1].name, nil
}

// MemberNames returns the member names of the object n in insertion order.
// It returns nil when n is not an object.
func MemberNames(n *Node) []string {
	if n == nil || n.kind != kindObject {
		return nil
	}
	names := make([]string, len(n.members))
	for i, m := range n.members {
		names[i] = m.name
	}
	return names
}

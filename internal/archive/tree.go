// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Kind identifies the shape of a Node.
type Kind int

const (
	KindScalar Kind = iota
	KindObject
	KindArray
)

// Node is a decoded JSON value that keeps object keys in document order.
type Node struct {
	Kind Kind

	// Fields holds object members in the order they appeared.
	Fields []Field

	// Items holds array elements.
	Items []Node

	// Value holds a scalar: string, json.Number, bool, or nil.
	Value any
}

// Field is one key/value member of an object.
type Field struct {
	Key   string
	Value Node
}

// Get returns the first member named key.
func (n Node) Get(key string) (Node, bool) {
	for _, f := range n.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Node{}, false
}

// AsString returns the scalar as a string when it is one.
func (n Node) AsString() (string, bool) {
	s, ok := n.Value.(string)
	return s, ok && n.Kind == KindScalar
}

// AsInt returns the scalar as an integer when it is an integral number.
func (n Node) AsInt() (int, bool) {
	num, ok := n.Value.(json.Number)
	if !ok || n.Kind != KindScalar {
		return 0, false
	}
	if i, err := num.Int64(); err == nil {
		return int(i), true
	}
	f, err := num.Float64()
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// Decode parses a single JSON document from r.
func Decode(r io.Reader) (Node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	n, err := decodeValue(dec)
	if err != nil {
		return Node{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Node{}, fmt.Errorf("unexpected data after JSON value")
	}
	return n, nil
}

func decodeValue(dec *json.Decoder) (Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return Node{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return Node{}, fmt.Errorf("unexpected delimiter %q", t)
	default:
		return Node{Kind: KindScalar, Value: t}, nil
	}
}

func decodeObject(dec *json.Decoder) (Node, error) {
	n := Node{Kind: KindObject}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Node{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Node{}, fmt.Errorf("object key is %T, not string", tok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return Node{}, fmt.Errorf("decoding %q: %w", key, err)
		}
		n.Fields = append(n.Fields, Field{Key: key, Value: val})
	}
	// closing '}'
	if _, err := dec.Token(); err != nil {
		return Node{}, err
	}
	return n, nil
}

func decodeArray(dec *json.Decoder) (Node, error) {
	n := Node{Kind: KindArray}
	for dec.More() {
		val, err := decodeValue(dec)
		if err != nil {
			return Node{}, err
		}
		n.Items = append(n.Items, val)
	}
	if _, err := dec.Token(); err != nil {
		return Node{}, err
	}
	return n, nil
}

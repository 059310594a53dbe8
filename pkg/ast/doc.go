package ast

import (
	"encoding/json"
	"fmt"
	"io"
)

// Document is a full pandoc document: the API version triple, metadata, and
// the block list. The engine mutates Blocks and Meta in place; it never
// replaces the document object.
type Document struct {
	APIVersion []int    `json:"pandoc-api-version"`
	Meta       Meta     `json:"meta"`
	Blocks     []*Block `json:"blocks"`
}

// ReadDocument decodes a pandoc JSON document from r.
func ReadDocument(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("ast: decoding document: %w", err)
	}
	if doc.Meta == nil {
		doc.Meta = Meta{}
	}
	return &doc, nil
}

// Write encodes the document as pandoc JSON to w.
func (d *Document) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("ast: encoding document: %w", err)
	}
	return nil
}

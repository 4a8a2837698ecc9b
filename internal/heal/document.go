package heal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Kind identifies the variant held by a Node.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Node is one value of a configuration document. Objects keep their members
// in document order so a healed file differs from the original only where
// paths were rewritten.
type Node struct {
	Kind   Kind
	Bool   bool
	Number json.Number
	String string
	Items  []*Node
	Fields []Field
}

// Field is one object member.
type Field struct {
	Key   string
	Value *Node
}

// StringNode returns a string leaf.
func StringNode(s string) *Node {
	return &Node{Kind: KindString, String: s}
}

// ObjectNode returns an empty object.
func ObjectNode() *Node {
	return &Node{Kind: KindObject}
}

// Get returns the member named key, or nil when n is not an object or has
// no such member.
func (n *Node) Get(key string) *Node {
	if n == nil || n.Kind != KindObject {
		return nil
	}
	for _, f := range n.Fields {
		if f.Key == key {
			return f.Value
		}
	}
	return nil
}

// Set replaces the member named key, appending it when absent.
func (n *Node) Set(key string, value *Node) {
	for i := range n.Fields {
		if n.Fields[i].Key == key {
			n.Fields[i].Value = value
			return
		}
	}
	n.Fields = append(n.Fields, Field{Key: key, Value: value})
}

// ReplaceStrings applies fn to every string leaf below n. Object keys and
// non-string leaves are left alone. It returns the number of substitutions
// fn reported.
func (n *Node) ReplaceStrings(fn func(string) (string, int)) int {
	if n == nil {
		return 0
	}

	switch n.Kind {
	case KindString:
		s, count := fn(n.String)
		n.String = s
		return count
	case KindArray:
		total := 0
		for _, item := range n.Items {
			total += item.ReplaceStrings(fn)
		}
		return total
	case KindObject:
		total := 0
		for _, f := range n.Fields {
			total += f.Value.ReplaceStrings(fn)
		}
		return total
	}
	return 0
}

// Parse decodes a JSON document.
func Parse(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	root, err := parseValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after the top-level value")
	}
	return root, nil
}

func parseValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	switch v := tok.(type) {
	case nil:
		return &Node{Kind: KindNull}, nil
	case bool:
		return &Node{Kind: KindBool, Bool: v}, nil
	case json.Number:
		return &Node{Kind: KindNumber, Number: v}, nil
	case string:
		return StringNode(v), nil
	case json.Delim:
		switch v {
		case '[':
			n := &Node{Kind: KindArray}
			for dec.More() {
				item, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				n.Items = append(n.Items, item)
			}
			if err := closeDelim(dec); err != nil {
				return nil, err
			}
			return n, nil
		case '{':
			n := ObjectNode()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T", keyTok)
				}
				value, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				n.Fields = append(n.Fields, Field{Key: key, Value: value})
			}
			if err := closeDelim(dec); err != nil {
				return nil, err
			}
			return n, nil
		}
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func closeDelim(dec *json.Decoder) error {
	if _, err := dec.Token(); err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	return nil
}

// Format encodes the document with two-space indentation and a trailing
// newline.
func Format(n *Node) ([]byte, error) {
	var compact bytes.Buffer
	if err := writeCompact(&compact, n); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func writeCompact(buf *bytes.Buffer, n *Node) error {
	if n == nil {
		buf.WriteString("null")
		return nil
	}

	switch n.Kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if n.Bool {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		buf.WriteString(n.Number.String())
	case KindString:
		return writeString(buf, n.String)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range n.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCompact(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, f := range n.Fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, f.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeCompact(buf, f.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown node kind %d", n.Kind)
	}
	return nil
}

// writeString quotes s without HTML escaping, so "<" and "&" in paths and
// URLs survive a rewrite unchanged.
func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}

package thredds

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// Element is a decoded XML element. Names carry resolved namespace URIs, so
// lookups compare against the namespace, not the prefix used in the document.
type Element struct {
	Name     xml.Name
	Attr     []xml.Attr
	Children []*Element
	Text     string
}

// ParseXML decodes a whole document and returns its root element.
func ParseXML(data []byte) (*Element, error) {
	return decodeXML(bytes.NewReader(data))
}

// ParseXMLFile reads and decodes the document at path.
func ParseXMLFile(path string) (*Element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeXML(f)
}

func decodeXML(r io.Reader) (*Element, error) {
	dec := xml.NewDecoder(r)
	var root *Element
	var stack []*Element
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name, Attr: append([]xml.Attr(nil), t.Attr...)}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			} else if root == nil {
				root = el
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("decode xml: empty document")
	}
	return root, nil
}

// DefaultNamespace returns the namespace declared with a bare xmlns attribute,
// or "" if the element declares none.
func (e *Element) DefaultNamespace() string {
	for _, a := range e.Attr {
		if a.Name.Space == "" && a.Name.Local == "xmlns" {
			return a.Value
		}
	}
	return ""
}

// Namespace returns the URI bound to prefix on this element.
func (e *Element) Namespace(prefix string) (string, bool) {
	for _, a := range e.Attr {
		if a.Name.Space == "xmlns" && a.Name.Local == prefix {
			return a.Value, true
		}
	}
	return "", false
}

// Get returns the unqualified attribute named local.
func (e *Element) Get(local string) (string, bool) {
	return e.GetNS("", local)
}

// GetNS returns the attribute with the given namespace and local name.
func (e *Element) GetNS(space, local string) (string, bool) {
	for _, a := range e.Attr {
		if a.Name.Space == space && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

func (e *Element) is(space, local string) bool {
	return e.Name.Space == space && e.Name.Local == local
}

// Find returns the first direct child with the given name, or nil.
func (e *Element) Find(space, local string) *Element {
	for _, c := range e.Children {
		if c.is(space, local) {
			return c
		}
	}
	return nil
}

// FindAll returns every direct child with the given name.
func (e *Element) FindAll(space, local string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.is(space, local) {
			out = append(out, c)
		}
	}
	return out
}

// Descendants returns every element below e (e itself excluded) with the given
// name, in document order.
func (e *Element) Descendants(space, local string) []*Element {
	var out []*Element
	var walk func(*Element)
	walk = func(n *Element) {
		for _, c := range n.Children {
			if c.is(space, local) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(e)
	return out
}

// FindDescendant returns the first descendant matching name whose attribute
// attr equals value.
func (e *Element) FindDescendant(space, local, attr, value string) *Element {
	for _, d := range e.Descendants(space, local) {
		if v, ok := d.Get(attr); ok && v == value {
			return d
		}
	}
	return nil
}

// TrimmedText returns the element's character data without surrounding whitespace.
func (e *Element) TrimmedText() string {
	return strings.TrimSpace(e.Text)
}

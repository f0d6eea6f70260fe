// Package catalog parses Amazon search, product and review markup into
// typed records and keyed collections.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NotFoundError reports a lookup for an attribute, ASIN or position that is
// not present.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("catalog: %q is not a known key", e.Key)
}

// field is one declared attribute: a name plus a presence-aware accessor.
type field struct {
	name string
	get  func() (any, bool)
}

// Item is one present attribute in declaration order.
type Item struct {
	Name  string
	Value any
}

// container carries the dict-like behavior shared by all records: an
// ordered attribute table and a validity flag that is set at most once
// during construction.
type container struct {
	valid bool
	table []field
}

func (c *container) bind(table []field) { c.table = table }

func (c *container) markValid() { c.valid = true }

// IsValid reports whether enough of the record was extracted for it to be
// usable. Each record type documents its own minimum.
func (c *container) IsValid() bool { return c.valid }

// Lookup returns the attribute value by name. The second return is false
// for unknown names and for declared attributes that are absent.
func (c *container) Lookup(name string) (any, bool) {
	for _, f := range c.table {
		if f.name == name {
			return f.get()
		}
	}
	return nil, false
}

// Get returns the attribute value by name or a NotFoundError.
func (c *container) Get(name string) (any, error) {
	if v, ok := c.Lookup(name); ok {
		return v, nil
	}
	return nil, &NotFoundError{Key: name}
}

// GetDefault returns the attribute value by name, or def when the name is
// unknown or the attribute absent.
func (c *container) GetDefault(name string, def any) any {
	if v, ok := c.Lookup(name); ok {
		return v
	}
	return def
}

// Items returns the present attributes in declaration order. Invalid
// records enumerate nothing.
func (c *container) Items() []Item {
	if !c.valid {
		return nil
	}
	var out []Item
	for _, f := range c.table {
		if v, ok := f.get(); ok {
			out = append(out, Item{Name: f.name, Value: v})
		}
	}
	return out
}

// Keys returns the names of all present attributes in declaration order.
func (c *container) Keys() []string {
	items := c.Items()
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

// Values returns all present attribute values in declaration order.
func (c *container) Values() []any {
	items := c.Items()
	out := make([]any, 0, len(items))
	for _, it := range items {
		out = append(out, it.Value)
	}
	return out
}

// ToDoc serializes the record to an ordered key/value document. With
// recursive set, composite attribute values are serialized through their
// own ToDoc; with flatten additionally set, their keys are merged into the
// parent level. flatten is ignored unless recursive is set.
func (c *container) ToDoc(recursive, flatten bool) *Doc {
	doc := NewDoc()
	for _, it := range c.Items() {
		if recursive {
			switch v := it.Value.(type) {
			case docer:
				if flatten {
					sub := v.ToDoc(recursive, flatten)
					for _, k := range sub.Keys() {
						sv, _ := sub.Get(k)
						doc.Set(k, sv)
					}
				} else {
					doc.Set(it.Name, v.ToDoc(recursive, flatten))
				}
				continue
			case []*Review:
				subs := make([]*Doc, 0, len(v))
				for _, rev := range v {
					subs = append(subs, rev.ToDoc(recursive, false))
				}
				doc.Set(it.Name, subs)
				continue
			}
		}
		doc.Set(it.Name, it.Value)
	}
	return doc
}

type docer interface {
	ToDoc(recursive, flatten bool) *Doc
}

// Doc is an insertion-ordered set of key/value pairs that marshals as a
// JSON object. It is the serialization surface for every record type and
// also backs mapping-valued attributes whose source order matters.
type Doc struct {
	keys []string
	vals map[string]any
}

// NewDoc returns an empty document.
func NewDoc() *Doc {
	return &Doc{vals: make(map[string]any)}
}

// Set stores a value under key. Re-setting an existing key overwrites the
// value but keeps the key's original position.
func (d *Doc) Set(key string, val any) {
	if _, ok := d.vals[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.vals[key] = val
}

// Get returns the value stored under key. Like Len, it is safe on a nil
// document.
func (d *Doc) Get(key string) (any, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.vals[key]
	return v, ok
}

// GetString returns the value under key when it is a string.
func (d *Doc) GetString(key string) (string, bool) {
	if d == nil {
		return "", false
	}
	v, ok := d.vals[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Keys returns all keys in insertion order.
func (d *Doc) Keys() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len returns the number of stored pairs.
func (d *Doc) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// MarshalJSON writes the pairs as a JSON object in insertion order.
func (d *Doc) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(d.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

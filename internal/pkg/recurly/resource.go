package recurly

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Attr is one scalar attribute of a remote resource. The provider marks
// explicitly empty values with nil="nil"; those are present (and overwrite
// local data) as opposed to attributes the payload simply omits.
type Attr struct {
	Value string
	Nil   bool
}

// Resource is the attribute bag one provider XML element decodes into.
// Scalar children become Attrs, element children become Nested resources and
// href-only children become Links to be followed on demand.
type Resource struct {
	Name   string
	Href   string
	Attrs  map[string]Attr
	Nested map[string][]*Resource
	Links  map[string]string
}

// Get returns the raw string value of an attribute and whether the payload
// carried it at all. A nil="nil" attribute is present with an empty value.
func (r *Resource) Get(name string) (string, bool) {
	a, ok := r.Attrs[name]
	if !ok {
		return "", false
	}
	if a.Nil {
		return "", true
	}
	return a.Value, true
}

// Time parses an attribute as an ISO-8601 timestamp. A present-but-nil
// attribute yields (nil, true).
func (r *Resource) Time(name string) (*time.Time, bool) {
	v, ok := r.Get(name)
	if !ok {
		return nil, false
	}
	if v == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-07:00", "2006-01-02T15:04:05Z"} {
		if t, err := time.Parse(layout, v); err == nil {
			utc := t.UTC()
			return &utc, true
		}
	}
	return nil, false
}

// Int parses an attribute as an integer. A present-but-nil attribute yields
// (nil, true).
func (r *Resource) Int(name string) (*int, bool) {
	v, ok := r.Get(name)
	if !ok {
		return nil, false
	}
	if v == "" {
		return nil, true
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return nil, false
	}
	return &n, true
}

// Bool parses an attribute as a boolean. A present-but-nil attribute yields
// (nil, true).
func (r *Resource) Bool(name string) (*bool, bool) {
	v, ok := r.Get(name)
	if !ok {
		return nil, false
	}
	if v == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return nil, false
	}
	return &b, true
}

// First returns the single nested resource under the given relation name, or
// nil when the payload does not expose the relation.
func (r *Resource) First(relation string) *Resource {
	list := r.Nested[relation]
	if len(list) == 0 {
		return nil
	}
	return list[0]
}

// HasAttrs reports whether the resource carries any scalar attributes, i.e.
// whether it is resource-shaped at all.
func (r *Resource) HasAttrs() bool {
	return r != nil && len(r.Attrs) > 0
}

// UnmarshalXML decodes one provider element into the attribute bag. Children
// with element content recurse into nested resources; children carrying only
// an href become links; everything else is a scalar attribute.
func (r *Resource) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	r.Name = start.Name.Local
	if r.Attrs == nil {
		r.Attrs = make(map[string]Attr)
		r.Nested = make(map[string][]*Resource)
		r.Links = make(map[string]string)
	}

	for _, a := range start.Attr {
		if a.Name.Local == "href" {
			r.Href = a.Value
		}
	}

	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if err := r.decodeChild(d, t); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (r *Resource) decodeChild(d *xml.Decoder, start xml.StartElement) error {
	name := start.Name.Local

	var href string
	isNil := false
	isArray := false
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "href":
			href = a.Value
		case "nil":
			isNil = true
		case "type":
			if a.Value == "array" {
				isArray = true
			}
		}
	}

	if isNil {
		r.Attrs[name] = Attr{Nil: true}
		return d.Skip()
	}

	if isArray {
		return r.decodeArray(d, name)
	}

	// Scan the element body to decide between a scalar attribute, a nested
	// resource and a bare link. The first element child makes it a nested
	// resource; that child is its first field, not the resource root.
	var text strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			nested := newResource(name)
			nested.Href = href
			if err := nested.decodeChild(d, t); err != nil {
				return err
			}
			if err := nested.decodeRemaining(d); err != nil {
				return err
			}
			r.Nested[name] = append(r.Nested[name], nested)
			return nil
		case xml.EndElement:
			value := strings.TrimSpace(text.String())
			if value == "" && href != "" {
				r.Links[name] = href
				return nil
			}
			r.Attrs[name] = Attr{Value: value}
			return nil
		}
	}
}

// decodeRemaining consumes the rest of an already-started nested resource
// element up to and including its end tag.
func (r *Resource) decodeRemaining(d *xml.Decoder) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := r.decodeChild(d, t); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (r *Resource) decodeArray(d *xml.Decoder, name string) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			nested := &Resource{}
			if err := nested.UnmarshalXML(d, t); err != nil {
				return err
			}
			r.Nested[name] = append(r.Nested[name], nested)
		case xml.EndElement:
			return nil
		}
	}
}

func newResource(name string) *Resource {
	return &Resource{
		Name:   name,
		Attrs:  make(map[string]Attr),
		Nested: make(map[string][]*Resource),
		Links:  make(map[string]string),
	}
}

// ParseResource decodes a full provider document into a Resource.
func ParseResource(data []byte) (*Resource, error) {
	res := &Resource{}
	if err := xml.Unmarshal(data, res); err != nil {
		return nil, fmt.Errorf("recurly: malformed resource payload: %w", err)
	}
	return res, nil
}

// XML renders the attribute bag back to a normalized XML document, used for
// the audit snapshots stored next to mirrored rows.
func (r *Resource) XML() string {
	var b strings.Builder
	r.writeXML(&b, 0)
	return b.String()
}

func (r *Resource) writeXML(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	b.WriteString(indent)
	b.WriteString("<" + r.Name + ">\n")

	names := make([]string, 0, len(r.Attrs))
	for name := range r.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		a := r.Attrs[name]
		b.WriteString(indent + "  ")
		if a.Nil {
			b.WriteString("<" + name + " nil=\"nil\"></" + name + ">\n")
			continue
		}
		var escaped strings.Builder
		xml.EscapeText(&escaped, []byte(a.Value))
		b.WriteString("<" + name + ">" + escaped.String() + "</" + name + ">\n")
	}

	relations := make([]string, 0, len(r.Nested))
	for rel := range r.Nested {
		relations = append(relations, rel)
	}
	sort.Strings(relations)
	for _, rel := range relations {
		for _, nested := range r.Nested[rel] {
			nested.writeXML(b, depth+1)
		}
	}

	b.WriteString(indent)
	b.WriteString("</" + r.Name + ">\n")
}

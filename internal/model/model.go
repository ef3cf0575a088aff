package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// RootID is the well-known id of the catalog root node.
const RootID int64 = 0

// Resolve tells a view layer how to render an attribute value in read mode and which
// input affordance to offer in edit mode.
type Resolve string

const (
	ResolveText    Resolve = "TEXT"
	ResolveImage   Resolve = "IMAGE"
	ResolveFile    Resolve = "FILE"
	ResolveHTML    Resolve = "HTML"
	ResolveBoolean Resolve = "BOOLEAN"
	ResolveEnum    Resolve = "ENUM"
	ResolveArray   Resolve = "ARRAY"
)

type Attribute struct {
	Key     string  `json:"key"`
	Name    string  `json:"name"`
	Resolve Resolve `json:"resolve"`
	// Table marks attributes meant for table views. Servers that never set it
	// leave every attribute visible.
	Table bool   `json:"table,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// Layout is the schema of one kind of catalog entity.
type Layout struct {
	ID                    *int64      `json:"id,omitempty"`
	Name                  string      `json:"name"`
	HTML                  string      `json:"html,omitempty"`
	BreadCrumbElementName string      `json:"breadCrumbElementName,omitempty"`
	Attributes            []Attribute `json:"attributes"`
}

func (l Layout) HasAttributes() bool { return len(l.Attributes) > 0 }

// Entity is one catalog record. Attribute values live next to the fixed keys on the
// wire ({"id":1,"layoutName":"Product","type":"Product","price":3}).
type Entity struct {
	ID         int64
	LayoutName string
	Type       string
	Attrs      map[string]any
}

const (
	keyID          = "id"
	keyLayoutName  = "layoutName"
	keyType        = "type"
	keyStringValue = "stringValue"
)

// Value returns a fixed key or attribute value.
func (e Entity) Value(key string) (any, bool) {
	switch key {
	case keyID:
		return e.ID, true
	case keyLayoutName:
		return e.LayoutName, true
	case keyType:
		if e.Type == "" {
			return nil, false
		}
		return e.Type, true
	}
	v, ok := e.Attrs[key]
	return v, ok
}

// Fields returns a flat copy of the entity, fixed keys included.
func (e Entity) Fields() map[string]any {
	out := make(map[string]any, len(e.Attrs)+3)
	for k, v := range e.Attrs {
		out[k] = v
	}
	out[keyID] = e.ID
	out[keyLayoutName] = e.LayoutName
	if e.Type != "" {
		out[keyType] = e.Type
	}
	return out
}

// Keys returns attribute keys in sorted order.
func (e Entity) Keys() []string {
	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (e Entity) Clone() Entity {
	out := e
	if e.Attrs != nil {
		out.Attrs = make(map[string]any, len(e.Attrs))
		for k, v := range e.Attrs {
			out.Attrs[k] = v
		}
	}
	return out
}

// StringValue is the display label servers attach to ancestor entities.
func (e Entity) StringValue() string {
	if v, ok := e.Attrs[keyStringValue]; ok && v != nil {
		if s := FormatValue(v); strings.TrimSpace(s) != "" {
			return s
		}
	}
	return strconv.FormatInt(e.ID, 10)
}

func (e Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Fields())
}

func (e *Entity) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := Entity{Attrs: map[string]any{}}
	for k, v := range raw {
		switch k {
		case keyID:
			if err := json.Unmarshal(v, &out.ID); err != nil {
				return fmt.Errorf("entity id: %w", err)
			}
		case keyLayoutName:
			if err := json.Unmarshal(v, &out.LayoutName); err != nil {
				return fmt.Errorf("entity layoutName: %w", err)
			}
		case keyType:
			if err := json.Unmarshal(v, &out.Type); err != nil {
				return fmt.Errorf("entity type: %w", err)
			}
		default:
			var x any
			if err := json.Unmarshal(v, &x); err != nil {
				return fmt.Errorf("entity attribute %s: %w", k, err)
			}
			out.Attrs[k] = x
		}
	}
	*e = out
	return nil
}

type Breadcrumb struct {
	ID          int64  `json:"id"`
	StringValue string `json:"stringValue"`
}

// Payload is the subtree response of GET /catalog/{id}.
//
// Parents is nil when the server omitted the field (or sent null); an empty array means
// the node has no ancestors.
type Payload struct {
	Success  bool     `json:"success"`
	Error    string   `json:"error,omitempty"`
	Entities []Entity `json:"entities"`
	Layouts  []Layout `json:"layouts"`
	Parents  []Entity `json:"parents"`
}

// SaveResult is the response of a persisted edit.
type SaveResult struct {
	Success bool    `json:"success"`
	Error   string  `json:"error,omitempty"`
	Entity  Entity  `json:"entity"`
	Layout  *Layout `json:"layout,omitempty"`
}

type DeleteResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// FormatValue renders an attribute value as plain text.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case []string:
		return strings.Join(t, ", ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, x := range t {
			parts = append(parts, FormatValue(x))
		}
		return strings.Join(parts, ", ")
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

// Format renders v the way read mode shows it. Kinds without special handling
// (including unknown ones) render as text.
func (r Resolve) Format(v any) string {
	if r == ResolveBoolean {
		switch t := v.(type) {
		case bool:
			return strconv.FormatBool(t)
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(t))
			if err == nil {
				return strconv.FormatBool(b)
			}
		}
	}
	return FormatValue(v)
}

// Parse materializes an edit-mode input string into the value sent on save.
func (r Resolve) Parse(s string) (any, error) {
	switch r {
	case ResolveBoolean:
		s = strings.TrimSpace(s)
		if s == "" {
			return false, nil
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean %q", s)
		}
		return b, nil
	case ResolveArray:
		out := []string{}
		for _, part := range strings.Split(s, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	default:
		return s, nil
	}
}

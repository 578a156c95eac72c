package serp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Kind tags the shape held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

// Member is one key of a mapping Value.
type Member struct {
	Key   string
	Value Value
}

// Value is a decoded JSON document that remembers the order of mapping
// keys. The zero Value is null.
type Value struct {
	kind    Kind
	boolean bool
	text    string
	items   []Value
	members []Member
}

func String(s string) Value     { return Value{kind: KindString, text: s} }
func Number(lit string) Value   { return Value{kind: KindNumber, text: lit} }
func Bool(b bool) Value         { return Value{kind: KindBool, boolean: b} }
func List(items ...Value) Value { return Value{kind: KindList, items: items} }

// Map builds a mapping from members in order. A repeated key keeps its
// first position and takes the last value.
func Map(members ...Member) Value {
	v := Value{kind: KindMap}
	for _, m := range members {
		v.set(m.Key, m.Value)
	}
	return v
}

// Field is shorthand for building a Member.
func Field(key string, value Value) Member {
	return Member{Key: key, Value: value}
}

func (v Value) Kind() Kind        { return v.kind }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) Items() []Value    { return v.items }
func (v Value) Members() []Member { return v.members }

// Str returns the string held by v.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.text, true
}

// Get looks up key on a mapping.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Field returns the member stored under key, or null. It is safe to chain
// on any kind.
func (v Value) Field(key string) Value {
	found, _ := v.Get(key)
	return found
}

// Truthy reports whether v counts as present: null, false, zero, the empty
// string and empty containers do not.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.boolean
	case KindNumber:
		f, err := strconv.ParseFloat(v.text, 64)
		return err != nil || f != 0
	case KindString:
		return v.text != ""
	case KindList:
		return len(v.items) > 0
	case KindMap:
		return len(v.members) > 0
	default:
		return false
	}
}

// Text renders a scalar as text. A mapping yields its "name" member, the
// way schema.org style organizations are nested.
func (v Value) Text() string {
	switch v.kind {
	case KindString, KindNumber:
		return v.text
	case KindBool:
		if v.boolean {
			return "true"
		}
		return "false"
	case KindMap:
		return v.Field("name").Text()
	default:
		return ""
	}
}

func (v *Value) set(key string, value Value) {
	for i := range v.members {
		if v.members[i].Key == key {
			v.members[i].Value = value
			return
		}
	}
	v.members = append(v.members, Member{Key: key, Value: value})
}

// Decode parses a JSON document into a Value.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, errors.New("unexpected data after top-level value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			list := Value{kind: KindList}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				list.items = append(list.items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return list, nil
		case '{':
			obj := Value{kind: KindMap}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key is %T, want string", keyTok)
				}
				member, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				obj.set(key, member)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return obj, nil
		}
		return Value{}, fmt.Errorf("unexpected delimiter %q", t)
	case string:
		return String(t), nil
	case json.Number:
		return Number(t.String()), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Value{}, nil
	default:
		return Value{}, fmt.Errorf("unexpected token %T", tok)
	}
}

// MarshalJSON writes v as compact JSON in document order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	v.encode(&buf, ",", ":")
	return buf.Bytes(), nil
}

// Preview writes v as readable JSON with spaces after separators, which
// gives truncation whitespace to cut on.
func (v Value) Preview() string {
	var buf bytes.Buffer
	v.encode(&buf, ", ", ": ")
	return buf.String()
}

func (v Value) encode(buf *bytes.Buffer, itemSep string, keySep string) {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(v.Text())
	case KindNumber:
		buf.WriteString(v.text)
	case KindString:
		writeQuoted(buf, v.text)
	case KindList:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteString(itemSep)
			}
			item.encode(buf, itemSep, keySep)
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteString(itemSep)
			}
			writeQuoted(buf, m.Key)
			buf.WriteString(keySep)
			m.Value.encode(buf, itemSep, keySep)
		}
		buf.WriteByte('}')
	}
}

func writeQuoted(buf *bytes.Buffer, s string) {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
}

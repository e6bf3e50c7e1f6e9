package wire

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Value is a single JSON value in its wire encoding. Parameters, results,
// ids and error data all travel through the dispatch pipeline as Values and
// are only decoded into concrete Go types at the point of use.
//
// Like json.RawMessage, a Value passes through encoding/json untouched.
type Value []byte

// Null is the JSON null value.
var Null = Value("null")

// Kind classifies a Value by the JSON type it encodes.
type Kind int

const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

var kindNames = [...]string{"invalid", "null", "bool", "number", "string", "array", "object"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindInvalid]
	}
	return kindNames[k]
}

// Kind reports the JSON type of v from its first significant byte. It does
// not validate the rest of the encoding; values produced by a JSON parser
// are well formed already.
func (v Value) Kind() Kind {
	b := trimLeftSpace(v)
	if len(b) == 0 {
		return KindInvalid
	}
	switch b[0] {
	case 'n':
		return KindNull
	case 't', 'f':
		return KindBool
	case '"':
		return KindString
	case '[':
		return KindArray
	case '{':
		return KindObject
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return KindNumber
	}
	return KindInvalid
}

// IsNull reports whether v encodes JSON null. A nil Value is absent, not
// null.
func (v Value) IsNull() bool {
	return v != nil && v.Kind() == KindNull
}

// Clone returns a copy of v with its own backing storage.
func (v Value) Clone() Value {
	if v == nil {
		return nil
	}
	out := make(Value, len(v))
	copy(out, v)
	return out
}

// Decode unmarshals v into dst.
func (v Value) Decode(dst interface{}) error {
	return json.Unmarshal(v, dst)
}

// MarshalJSON returns v unmodified. A nil or empty Value encodes as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if len(v) == 0 {
		return []byte("null"), nil
	}
	return v, nil
}

// UnmarshalJSON stores a copy of data in v.
func (v *Value) UnmarshalJSON(data []byte) error {
	if v == nil {
		return errors.New("wire: UnmarshalJSON on nil Value pointer")
	}
	*v = append((*v)[0:0], data...)
	return nil
}

// Encode marshals a Go value into a Value.
func Encode(v interface{}) (Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Value(b), nil
}

// MustEncode is Encode for values that cannot fail to marshal, such as
// strings and numbers. It panics on error.
func MustEncode(v interface{}) Value {
	val, err := Encode(v)
	if err != nil {
		panic("wire: " + err.Error())
	}
	return val
}

func trimLeftSpace(b []byte) []byte {
	return bytes.TrimLeft(b, " \t\r\n")
}

package wire

import (
	"encoding/json"
	"testing"
)

func TestValueKind(t *testing.T) {
	tests := []struct {
		raw  string
		want Kind
	}{
		{`null`, KindNull},
		{`true`, KindBool},
		{`false`, KindBool},
		{`"hi"`, KindString},
		{`42`, KindNumber},
		{`-3`, KindNumber},
		{`0.5`, KindNumber},
		{`[1,2]`, KindArray},
		{`{"a":1}`, KindObject},
		{`  {"a":1}`, KindObject},
		{"\n\t[1]", KindArray},
		{``, KindInvalid},
	}

	for _, tt := range tests {
		if got := Value(tt.raw).Kind(); got != tt.want {
			t.Errorf("Kind(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestValueRoundTrip(t *testing.T) {
	type box struct {
		V Value `json:"v"`
	}

	var b box
	if err := json.Unmarshal([]byte(`{"v":{"nested":[1,2,3]}}`), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(b.V) != `{"nested":[1,2,3]}` {
		t.Errorf("got %s, want the nested object verbatim", b.V)
	}

	out, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"v":{"nested":[1,2,3]}}` {
		t.Errorf("got %s, want the original document", out)
	}
}

func TestNilValueMarshalsAsNull(t *testing.T) {
	out, err := json.Marshal(struct {
		V Value `json:"v"`
	}{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"v":null}` {
		t.Errorf("got %s, want {\"v\":null}", out)
	}
}

func TestValueIsNull(t *testing.T) {
	if !Null.IsNull() {
		t.Error("Null.IsNull() = false")
	}
	if Value(nil).IsNull() {
		t.Error("nil Value reported as null")
	}
	if Value(`0`).IsNull() {
		t.Error("0 reported as null")
	}
}

func TestValueClone(t *testing.T) {
	orig := Value(`[1,2]`)
	cl := orig.Clone()
	cl[1] = '9'
	if string(orig) != `[1,2]` {
		t.Errorf("clone shares storage with original: %s", orig)
	}
	if Value(nil).Clone() != nil {
		t.Error("Clone of nil should stay nil")
	}
}

func TestEncode(t *testing.T) {
	v, err := Encode(map[string]int{"a": 1})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(v) != `{"a":1}` {
		t.Errorf("got %s, want {\"a\":1}", v)
	}

	if _, err := Encode(make(chan int)); err == nil {
		t.Error("Encode(chan) should fail")
	}
}

func TestMustEncodePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustEncode(chan) did not panic")
		}
	}()
	MustEncode(make(chan int))
}

func TestValueDecode(t *testing.T) {
	var n int
	if err := Value(`7`).Decode(&n); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n != 7 {
		t.Errorf("got %d, want 7", n)
	}
	if err := Value(`"x"`).Decode(&n); err == nil {
		t.Error("decoding a string into int should fail")
	}
}

func TestKindString(t *testing.T) {
	if got := KindObject.String(); got != "object" {
		t.Errorf("got %q, want object", got)
	}
	if got := Kind(99).String(); got != "invalid" {
		t.Errorf("got %q, want invalid", got)
	}
}

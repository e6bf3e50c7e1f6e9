package wire

import (
	"encoding/json"
	"errors"
)

// Version is the protocol version marker accepted and emitted by this
// package.
const Version = "2.0"

// Params is a call's params member exactly as received: a JSON array for
// positional parameters, a JSON object for named parameters, or absent.
// The zero value is the absent payload.
type Params []byte

// Absent reports whether no parameter payload was supplied. A params member
// of null counts as absent.
func (p Params) Absent() bool {
	return len(p) == 0 || Value(p).IsNull()
}

// Kind reports the JSON type of the payload.
func (p Params) Kind() Kind {
	return Value(p).Kind()
}

// MarshalJSON returns p unmodified. An absent payload encodes as null.
func (p Params) MarshalJSON() ([]byte, error) {
	return Value(p).MarshalJSON()
}

// UnmarshalJSON stores a copy of data in p.
func (p *Params) UnmarshalJSON(data []byte) error {
	return (*Value)(p).UnmarshalJSON(data)
}

// ID is a call's id member exactly as received, so numeric ids echo back
// without any round trip through float64. A nil ID means the call carried
// no id member.
type ID []byte

// MarshalJSON returns the id unmodified. A nil ID encodes as null, which is
// what outputs for id-less invalid calls must carry.
func (id ID) MarshalJSON() ([]byte, error) {
	return Value(id).MarshalJSON()
}

// UnmarshalJSON stores a copy of data in id.
func (id *ID) UnmarshalJSON(data []byte) error {
	return (*Value)(id).UnmarshalJSON(data)
}

// CallKind discriminates the classification outcomes for a single message.
type CallKind int

const (
	// CallInvalid marks a message that is structurally not a call: wrong or
	// missing version marker, missing method, a member of the wrong type,
	// or a message that is not a JSON object at all.
	CallInvalid CallKind = iota
	// CallNotification is a call without an id. It is executed but never
	// answered.
	CallNotification
	// CallMethod is a call with an id, including a null id.
	CallMethod
)

// Call is one classified protocol message. Invalid calls keep whatever id
// could be salvaged from the message so the failure output can still be
// correlated.
type Call struct {
	Kind   CallKind
	Method string
	Params Params
	ID     ID
}

// UnmarshalJSON classifies a message. It never fails on well-formed JSON:
// a message that is not a valid call comes back with Kind CallInvalid
// rather than an error.
func (c *Call) UnmarshalJSON(data []byte) error {
	*c = Call{}

	var raw struct {
		Version *string `json:"jsonrpc"`
		Method  *string `json:"method"`
		Params  Params  `json:"params"`
		ID      ID      `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		// Not an object, or a member of the wrong type.
		c.ID = salvageID(data)
		return nil
	}

	if raw.Version == nil || *raw.Version != Version || raw.Method == nil {
		c.ID = usableID(raw.ID)
		return nil
	}
	if !raw.Params.Absent() {
		if k := raw.Params.Kind(); k != KindArray && k != KindObject {
			c.ID = usableID(raw.ID)
			return nil
		}
	}
	if raw.ID != nil && usableID(raw.ID) == nil {
		// An id of the wrong type is not echoable.
		return nil
	}

	c.Method = *raw.Method
	if !raw.Params.Absent() {
		c.Params = raw.Params
	}
	c.ID = raw.ID
	if c.ID == nil {
		c.Kind = CallNotification
	} else {
		c.Kind = CallMethod
	}
	return nil
}

// salvageID pulls a usable id out of a malformed message.
func salvageID(data []byte) ID {
	var probe struct {
		ID ID `json:"id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil
	}
	return usableID(probe.ID)
}

// usableID filters out ids that the protocol does not allow: only strings,
// numbers and null may be echoed back.
func usableID(id ID) ID {
	switch Value(id).Kind() {
	case KindNull, KindString, KindNumber:
		return id
	}
	return nil
}

// Request is a parsed protocol request: a single call or a batch of calls.
// Batch keeps its meaning even for batches of one, which answer with a
// one-element array.
type Request struct {
	Batch bool
	Calls []Call
}

// ParseRequest classifies raw bytes into a Request. It fails only when data
// is not well-formed JSON; every well-formed payload classifies, however far
// from a valid call it is.
func ParseRequest(data []byte) (Request, error) {
	b := trimLeftSpace(data)
	if len(b) > 0 && b[0] == '[' {
		var calls []Call
		if err := json.Unmarshal(data, &calls); err != nil {
			return Request{}, err
		}
		return Request{Batch: true, Calls: calls}, nil
	}
	var c Call
	if err := json.Unmarshal(data, &c); err != nil {
		return Request{}, err
	}
	return Request{Calls: []Call{c}}, nil
}

// Output is the answer to one method call.
type Output struct {
	JSONRPC string       `json:"jsonrpc"`
	Result  Value        `json:"result,omitempty"`
	Error   *ErrorObject `json:"error,omitempty"`
	ID      ID           `json:"id"`
}

// Success builds the output for a completed call. An empty result
// normalizes to null so the result member is always present.
func Success(id ID, result Value) Output {
	if len(result) == 0 {
		result = Null
	}
	return Output{JSONRPC: Version, Result: result, ID: id}
}

// Failure builds the output for a failed call.
func Failure(id ID, err *ErrorObject) Output {
	return Output{JSONRPC: Version, Error: err, ID: id}
}

// Response is the answer to a Request. A batch response marshals as an
// array even when only one output survived notification filtering; a single
// response marshals as a bare output object.
type Response struct {
	Batch   bool
	Outputs []Output
}

func (r Response) MarshalJSON() ([]byte, error) {
	if r.Batch {
		return json.Marshal(r.Outputs)
	}
	if len(r.Outputs) != 1 {
		return nil, errors.New("wire: single response must carry exactly one output")
	}
	return json.Marshal(r.Outputs[0])
}

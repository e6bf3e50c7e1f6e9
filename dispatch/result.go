package dispatch

import (
	"github.com/wirerpc/wirerpc/wire"
)

// Result is a two-outcome return value for procedures whose failure is data
// rather than a Go error. The zero value is a successful null result.
type Result struct {
	fail   bool
	tagged bool
	value  interface{}
}

// OK wraps a successful result value.
func OK(v interface{}) Result {
	return Result{value: v}
}

// Fail wraps a failure payload. It encodes as a server error, code -32000
// with message "Server error.", carrying the payload in the error data
// member.
func Fail(v interface{}) Result {
	return Result{fail: true, value: v}
}

// Tagged switches the result to tagged encoding: the call succeeds at the
// protocol level either way and the result member carries {"Ok": value} or
// {"Err": value}. Procedures whose clients want failure payloads inside the
// result channel opt in with it.
func (r Result) Tagged() Result {
	r.tagged = true
	return r
}

func (r Result) encode() (wire.Value, error) {
	if r.tagged {
		key := "Ok"
		if r.fail {
			key = "Err"
		}
		v, err := wire.Encode(map[string]interface{}{key: r.value})
		if err != nil {
			return nil, wire.InternalError()
		}
		return v, nil
	}
	if r.fail {
		return nil, wire.ServerError(r.value)
	}
	v, err := wire.Encode(r.value)
	if err != nil {
		return nil, wire.InternalError()
	}
	return v, nil
}

// EncodeReturn converts a handler return value into its wire encoding.
// Results route through their success or failure channel, wire.Values pass
// through untouched, nil becomes null, and anything else marshals as JSON.
// A value that fails to marshal answers an internal error; the cause never
// travels to clients.
func EncodeReturn(v interface{}) (wire.Value, error) {
	switch rv := v.(type) {
	case nil:
		return wire.Null, nil
	case Result:
		return rv.encode()
	case wire.Value:
		if len(rv) == 0 {
			return wire.Null, nil
		}
		return rv, nil
	default:
		out, err := wire.Encode(v)
		if err != nil {
			return nil, wire.InternalError()
		}
		return out, nil
	}
}

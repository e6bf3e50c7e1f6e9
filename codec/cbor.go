package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CBOR transcodes CBOR payloads to protocol JSON and back. Only the CBOR
// subset with a JSON image is accepted: byte strings, tags and non-string
// map keys fail decoding with a descriptive error.
type CBOR struct{}

func (CBOR) Name() string        { return "cbor" }
func (CBOR) ContentType() string { return "application/cbor" }

// Decode converts a CBOR payload to request JSON.
func (CBOR) Decode(payload []byte) ([]byte, error) {
	var v interface{}
	if err := cbor.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("codec: cbor decode: %w", err)
	}
	j, err := toJSONValue(v)
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(j)
	if err != nil {
		return nil, fmt.Errorf("codec: cbor transcode: %w", err)
	}
	return out, nil
}

// Encode converts response JSON to a CBOR payload. Integers survive exactly:
// numbers are re-read through json.Number and kept as int64 when they have
// no fraction.
func (CBOR) Encode(response []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(response))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("codec: response is not valid JSON: %w", err)
	}
	out, err := cbor.Marshal(fromJSONValue(v))
	if err != nil {
		return nil, fmt.Errorf("codec: cbor encode: %w", err)
	}
	return out, nil
}

// toJSONValue rewrites a decoded CBOR value into the shape encoding/json
// expects, rejecting anything without a JSON image.
func toJSONValue(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case nil, bool, string, int64, uint64, float32, float64:
		return val, nil
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, elem := range val {
			conv, err := toJSONValue(elem)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, elem := range val {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("codec: cbor map key %v (%T) has no JSON form", k, k)
			}
			conv, err := toJSONValue(elem)
			if err != nil {
				return nil, err
			}
			out[key] = conv
		}
		return out, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, elem := range val {
			conv, err := toJSONValue(elem)
			if err != nil {
				return nil, err
			}
			out[k] = conv
		}
		return out, nil
	case []byte:
		return nil, fmt.Errorf("codec: cbor byte string has no JSON form")
	case cbor.Tag:
		return nil, fmt.Errorf("codec: cbor tag %d has no JSON form", val.Number)
	default:
		return nil, fmt.Errorf("codec: cbor value of type %T has no JSON form", v)
	}
}

// fromJSONValue rewrites a decoded JSON value for the CBOR encoder,
// resolving json.Number into int64 or float64.
func fromJSONValue(v interface{}) interface{} {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case []interface{}:
		for i, elem := range val {
			val[i] = fromJSONValue(elem)
		}
		return val
	case map[string]interface{}:
		for k, elem := range val {
			val[k] = fromJSONValue(elem)
		}
		return val
	default:
		return v
	}
}

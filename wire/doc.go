// Package wire defines the JSON-RPC 2.0 message model: values, calls,
// requests, outputs, responses and error objects.
//
// The package keeps protocol values in their wire encoding. A Value is raw
// JSON bytes classified by first significant byte, so the dispatch layers
// above can route parameters and results without decoding them into Go
// types. Ids in particular echo back byte for byte, which keeps 64-bit
// numeric ids exact.
//
// # Classification
//
// ParseRequest turns a raw payload into a Request of classified Calls.
// Classification never fails on well-formed JSON: a message that is not a
// valid call becomes a Call with Kind CallInvalid, keeping whatever id
// could be salvaged for the failure output. Only malformed JSON makes
// ParseRequest return an error.
//
// # Outputs
//
// Success and Failure build outputs with the version marker and id already
// in place. A Response marshals as a bare object or an array depending on
// whether the request was a batch.
package wire

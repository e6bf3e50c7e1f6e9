// Package dispatch routes classified JSON-RPC calls to registered
// procedures: it binds parameter payloads to declared parameter names,
// decodes arguments, executes handlers and encodes results.
//
// # Registration
//
// A Registry maps method names to procedures. The typed glue is the usual
// way in:
//
//	reg := dispatch.NewRegistry()
//	dispatch.MustFunc(reg, "add", func(ctx context.Context, p AddParams) (int, error) {
//	    return p.A + p.B, nil
//	})
//
// with parameters declared by a struct:
//
//	type AddParams struct {
//	    A int `json:"a"`
//	    B int `json:"b"`
//	}
//
// Receiver registers every exported method of a value in one call, the
// method name (optionally namespaced) becoming the procedure name.
// Procedures that want raw wire values register a Handler directly.
//
// # Binding
//
// Positional payloads must match the declared parameter count; named
// payloads must supply exactly the declared names, and bind in declaration
// order regardless of key order. Absent params bind like an empty
// positional list. Binding and decoding failures answer invalid params
// (-32602) with the failure described in the error data.
//
// # Failure channels
//
// A handler error that is a *wire.ErrorObject passes through as is; any
// other error answers a server error (-32000, "Server error.") whose data
// member carries the error text, or the error's ErrorData() value when it
// implements one. Procedures that treat failure as data
// return a Result instead: Fail payloads ride the error data member, and
// Tagged results keep both outcomes in the result member as {"Ok": v} or
// {"Err": v}. Handler panics are contained and answer an internal error
// (-32603).
//
// # Dispatching
//
// A Dispatcher executes single calls, batches and notifications with the
// protocol's answer rules: batch outputs keep request order, notifications
// and empty batches produce no response at all, and malformed JSON answers
// a single invalid request failure with a null id. HandleRaw is the
// bytes-in, bytes-out entry point transports build on.
package dispatch

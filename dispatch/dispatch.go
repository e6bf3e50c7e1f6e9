package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/wirerpc/wirerpc/wire"
)

// CallHook observes every dispatched call: the method name (empty for
// invalid calls), the protocol error code (0 on success), whether the call
// was a notification and the elapsed dispatch time. Hooks run inline with
// dispatch; keep them cheap.
type CallHook func(method string, code int, notification bool, elapsed time.Duration)

// Dispatcher executes classified requests against a registry.
type Dispatcher struct {
	reg    *Registry
	log    zerolog.Logger
	onCall CallHook
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatch logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(d *Dispatcher) { d.log = log }
}

// WithCallHook installs a hook observing every dispatched call.
func WithCallHook(hook CallHook) Option {
	return func(d *Dispatcher) { d.onCall = hook }
}

// NewDispatcher builds a dispatcher over reg.
func NewDispatcher(reg *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{reg: reg, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HandleRaw dispatches a raw payload and returns the encoded response, or
// nil when the request produces none. Payloads that are not well-formed
// JSON dispatch as a single invalid call, answering one invalid request
// failure with a null id.
func (d *Dispatcher) HandleRaw(ctx context.Context, raw []byte) []byte {
	req, err := wire.ParseRequest(raw)
	if err != nil {
		d.log.Debug().Err(err).Msg("request is not well-formed JSON")
		req = wire.Request{Calls: []wire.Call{{Kind: wire.CallInvalid}}}
	}
	resp, ok := d.HandleRequest(ctx, req)
	if !ok {
		return nil
	}
	out, err := json.Marshal(resp)
	if err != nil {
		// Outputs are built from values that already passed through the
		// JSON encoder, so this is unreachable short of a defect.
		panic("dispatch: response failed to encode: " + err.Error())
	}
	return out
}

// HandleRequest dispatches a classified request. The boolean reports
// whether a response exists: notifications, all-notification batches and
// empty batches produce none.
func (d *Dispatcher) HandleRequest(ctx context.Context, req wire.Request) (wire.Response, bool) {
	if !req.Batch {
		if len(req.Calls) == 0 {
			return wire.Response{}, false
		}
		out, ok := d.HandleCall(ctx, req.Calls[0])
		if !ok {
			return wire.Response{}, false
		}
		return wire.Response{Outputs: []wire.Output{out}}, true
	}

	outputs := make([]wire.Output, 0, len(req.Calls))
	for _, call := range req.Calls {
		if out, ok := d.HandleCall(ctx, call); ok {
			outputs = append(outputs, out)
		}
	}
	if len(outputs) == 0 {
		return wire.Response{}, false
	}
	return wire.Response{Batch: true, Outputs: outputs}, true
}

// HandleCall dispatches one classified call. The boolean reports whether an
// output exists; notifications execute but never answer, whatever their
// outcome.
func (d *Dispatcher) HandleCall(ctx context.Context, call wire.Call) (wire.Output, bool) {
	if ctx == nil {
		ctx = context.Background()
	}

	if call.Kind == wire.CallInvalid {
		d.observe("", wire.CodeInvalidRequest, false, 0)
		return wire.Failure(call.ID, wire.InvalidRequestError()), true
	}

	start := time.Now()
	result, eo := d.run(ctx, call)
	code := 0
	if eo != nil {
		code = eo.Code
	}
	d.observe(call.Method, code, call.Kind == wire.CallNotification, time.Since(start))

	if call.Kind == wire.CallNotification {
		if eo != nil {
			d.log.Debug().Str("method", call.Method).Int("code", eo.Code).Msg("notification failed")
		}
		return wire.Output{}, false
	}
	if eo != nil {
		return wire.Failure(call.ID, eo), true
	}
	return wire.Success(call.ID, result), true
}

// run resolves and executes one call, mapping every failure to its error
// object.
func (d *Dispatcher) run(ctx context.Context, call wire.Call) (wire.Value, *wire.ErrorObject) {
	proc, ok := d.reg.Lookup(call.Method)
	if !ok {
		return nil, wire.MethodNotFoundError(call.Method)
	}
	args, err := Bind(proc.params, call.Params)
	if err != nil {
		return nil, wire.InvalidParamsError(err)
	}
	result, err := d.invoke(ctx, proc, args)
	if err != nil {
		return nil, d.errorObject(call.Method, err)
	}
	return result, nil
}

// invoke runs the handler with panic containment.
func (d *Dispatcher) invoke(ctx context.Context, proc *Procedure, args []wire.Value) (result wire.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Str("method", proc.name).Interface("panic", r).Msg("handler panicked")
			result, err = nil, wire.InternalError()
		}
	}()
	return proc.fn(ctx, args)
}

// errorObject classifies a handler error.
func (d *Dispatcher) errorObject(method string, err error) *wire.ErrorObject {
	var eo *wire.ErrorObject
	if errors.As(err, &eo) {
		return eo
	}
	var be BindingError
	if errors.As(err, &be) {
		return wire.InvalidParamsError(be)
	}
	d.log.Debug().Str("method", method).Err(err).Msg("handler failed")
	var carrier interface{ ErrorData() interface{} }
	if errors.As(err, &carrier) {
		return wire.ServerError(carrier.ErrorData())
	}
	return wire.ServerError(err.Error())
}

func (d *Dispatcher) observe(method string, code int, notification bool, elapsed time.Duration) {
	if d.onCall == nil {
		return
	}
	d.onCall(method, code, notification, elapsed)
}

package dispatch

import (
	"context"
	"reflect"

	"github.com/wirerpc/wirerpc/wire"
)

var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// Receiver registers every exported method of recv that has the signature
//
//	func(ctx context.Context, params P) (R, error)
//
// with P a struct laid out as for Func. The Go method name becomes the
// procedure name, prefixed by namespace when non-empty; a `_` field in P
// with a jsonrpc tag overrides the name. Methods with other signatures are
// skipped. All registered closures share the one receiver value, so its
// state must tolerate concurrent calls.
func Receiver(r *Registry, namespace string, recv interface{}) error {
	val := reflect.ValueOf(recv)
	typ := val.Type()

	for i := 0; i < val.NumMethod(); i++ {
		method := typ.Method(i)
		if !method.IsExported() {
			continue
		}
		ft := method.Func.Type()
		if ft.NumIn() != 3 || ft.In(1) != ctxType {
			continue
		}
		if ft.NumOut() != 2 || ft.Out(1) != errType {
			continue
		}
		pt := ft.In(2)
		if pt.Kind() != reflect.Struct {
			continue
		}

		names, fields, override, err := paramFields(pt)
		if err != nil {
			continue
		}
		name := method.Name
		if override != "" {
			name = override
		}
		if namespace != "" {
			name = namespace + "." + name
		}

		fn := method.Func
		h := func(ctx context.Context, args []wire.Value) (wire.Value, error) {
			pv := reflect.New(pt).Elem()
			for i, arg := range args {
				dst := pv.Field(fields[i]).Addr().Interface()
				if err := arg.Decode(dst); err != nil {
					return nil, &InvalidArgStructure{Name: names[i], Index: i, Err: err}
				}
			}
			results := fn.Call([]reflect.Value{val, reflect.ValueOf(ctx), pv})
			if !results[1].IsNil() {
				return nil, results[1].Interface().(error)
			}
			return EncodeReturn(results[0].Interface())
		}
		if err := r.Register(name, names, h); err != nil {
			return err
		}
	}
	return nil
}

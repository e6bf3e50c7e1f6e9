package dispatch

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/wirerpc/wirerpc/wire"
)

// Func registers a typed procedure. P must be a struct; its exported fields
// declare the parameters in field order, named by json tag when tagged and
// by field name otherwise. Each bound argument decodes into its field, so a
// payload that matches the declared shape but not the Go types answers
// invalid params naming the offending parameter.
//
// The return value encodes via EncodeReturn, so R may be any marshalable
// type, a wire.Value, or a Result.
func Func[P, R any](r *Registry, name string, fn func(ctx context.Context, params P) (R, error)) error {
	pt := reflect.TypeOf((*P)(nil)).Elem()
	names, fields, _, err := paramFields(pt)
	if err != nil {
		return fmt.Errorf("dispatch: register %q: %w", name, err)
	}

	h := func(ctx context.Context, args []wire.Value) (wire.Value, error) {
		var p P
		pv := reflect.ValueOf(&p).Elem()
		for i, arg := range args {
			dst := pv.Field(fields[i]).Addr().Interface()
			if err := arg.Decode(dst); err != nil {
				return nil, &InvalidArgStructure{Name: names[i], Index: i, Err: err}
			}
		}
		out, err := fn(ctx, p)
		if err != nil {
			return nil, err
		}
		return EncodeReturn(out)
	}
	return r.Register(name, names, h)
}

// MustFunc is Func for wiring done at startup. It panics on error.
func MustFunc[P, R any](r *Registry, name string, fn func(ctx context.Context, params P) (R, error)) {
	if err := Func(r, name, fn); err != nil {
		panic(err)
	}
}

// paramFields walks a params struct and returns the parameter names in
// field order, the matching field indices, and any method name override
// from a `_` field's jsonrpc tag. Fields tagged `json:"-"` and unexported
// fields do not declare parameters.
func paramFields(pt reflect.Type) (names []string, fields []int, override string, err error) {
	if pt.Kind() != reflect.Struct {
		return nil, nil, "", fmt.Errorf("params type %s is not a struct", pt)
	}
	for i := 0; i < pt.NumField(); i++ {
		field := pt.Field(i)
		if field.Name == "_" {
			if tag := field.Tag.Get("jsonrpc"); tag != "" {
				override = tag
			}
			continue
		}
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag := field.Tag.Get("json"); tag != "" {
			tagName := strings.Split(tag, ",")[0]
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		names = append(names, name)
		fields = append(fields, i)
	}
	return names, fields, override, nil
}

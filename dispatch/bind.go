package dispatch

import (
	"encoding/json"
	"errors"
	"sort"

	"github.com/wirerpc/wirerpc/wire"
)

var errBadPayload = errors.New("dispatch: params must be a JSON array or object")

// Bind reconciles a parameter payload against a procedure's declared
// parameter names and returns one wire value per parameter, in declaration
// order.
//
// Positional payloads must match the declared count exactly. Named payloads
// must supply every declared name and nothing else; values come back in
// declaration order, so handlers never observe payload key order. An absent
// payload binds like an empty positional list.
func Bind(names []string, params wire.Params) ([]wire.Value, error) {
	if params.Absent() {
		if len(names) != 0 {
			return nil, &WrongNumberOfArgs{Expected: len(names), Actual: 0}
		}
		return nil, nil
	}

	switch params.Kind() {
	case wire.KindArray:
		var args []wire.Value
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, errBadPayload
		}
		if len(args) != len(names) {
			return nil, &WrongNumberOfArgs{Expected: len(names), Actual: len(args)}
		}
		return args, nil

	case wire.KindObject:
		var fields map[string]wire.Value
		if err := json.Unmarshal(params, &fields); err != nil {
			return nil, errBadPayload
		}
		args := make([]wire.Value, len(names))
		for i, name := range names {
			v, ok := fields[name]
			if !ok {
				return nil, &MissingNamedParameter{Name: name}
			}
			args[i] = v
			delete(fields, name)
		}
		if len(fields) != 0 {
			// Map order is random; report the smallest leftover key.
			extras := make([]string, 0, len(fields))
			for name := range fields {
				extras = append(extras, name)
			}
			sort.Strings(extras)
			return nil, &ExtraNamedParameter{Name: extras[0]}
		}
		return args, nil
	}

	return nil, errBadPayload
}

package dispatch

import (
	"fmt"

	"github.com/wirerpc/wirerpc/wire"
)

// DecodeArgs decodes bound wire values into Go destinations, one pointer
// per argument. It is the decoding half of the typed glue, exposed for
// handlers written against the raw Handler signature.
//
// A value that does not fit its destination returns an InvalidArgStructure
// naming the parameter, which the dispatcher answers as invalid params.
func DecodeArgs(names []string, args []wire.Value, dests ...interface{}) error {
	if len(dests) != len(args) {
		return fmt.Errorf("dispatch: %d destinations for %d arguments", len(dests), len(args))
	}
	for i, arg := range args {
		if err := arg.Decode(dests[i]); err != nil {
			name := ""
			if i < len(names) {
				name = names[i]
			}
			return &InvalidArgStructure{Name: name, Index: i, Err: err}
		}
	}
	return nil
}

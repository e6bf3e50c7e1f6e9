package dispatch

import "fmt"

// BindingError is implemented by parameter binding and argument decoding
// failures. The dispatcher answers any BindingError with an invalid params
// failure, whether it comes from the binder itself or from a typed handler
// decoding its arguments.
type BindingError interface {
	error
	bindingError()
}

// WrongNumberOfArgs reports a positional payload whose length does not
// match the procedure's declared parameter count. Expected carries the
// declared count, Actual the supplied one.
type WrongNumberOfArgs struct {
	Expected int
	Actual   int
}

func (e *WrongNumberOfArgs) Error() string {
	return fmt.Sprintf("wrong number of arguments: expected %d, got %d", e.Expected, e.Actual)
}

func (*WrongNumberOfArgs) bindingError() {}

// MissingNamedParameter reports a named payload lacking a declared
// parameter. Declared names are checked in declaration order, so only the
// first missing one is reported.
type MissingNamedParameter struct {
	Name string
}

func (e *MissingNamedParameter) Error() string {
	return fmt.Sprintf("missing named parameter %q", e.Name)
}

func (*MissingNamedParameter) bindingError() {}

// ExtraNamedParameter reports a named payload key the procedure does not
// declare. When several keys are extra, the smallest one is reported.
type ExtraNamedParameter struct {
	Name string
}

func (e *ExtraNamedParameter) Error() string {
	return fmt.Sprintf("extra named parameter %q", e.Name)
}

func (*ExtraNamedParameter) bindingError() {}

// InvalidArgStructure reports a bound argument whose wire value does not
// decode into the parameter's Go type. The decode failure is available via
// Unwrap but kept out of the message, which travels to clients.
type InvalidArgStructure struct {
	Name  string
	Index int
	Err   error
}

func (e *InvalidArgStructure) Error() string {
	return fmt.Sprintf("invalid argument %q at position %d", e.Name, e.Index)
}

func (e *InvalidArgStructure) Unwrap() error { return e.Err }

func (*InvalidArgStructure) bindingError() {}

package wire

// Error codes defined by the protocol. CodeServerError marks
// application-level failures surfaced through the error channel; the
// remaining codes mark protocol-level failures.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeServerError    = -32000
)

// ErrorObject is the error member of a failure output.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    Value  `json:"data,omitempty"`
}

func (e *ErrorObject) Error() string {
	return e.Message
}

// NewError builds an ErrorObject with no data member.
func NewError(code int, message string) *ErrorObject {
	return &ErrorObject{Code: code, Message: message}
}

// WithData returns a copy of e carrying data. Encoding is best effort:
// a value that cannot be marshaled leaves the data member empty.
func (e *ErrorObject) WithData(data interface{}) *ErrorObject {
	out := *e
	if v, err := Encode(data); err == nil {
		out.Data = v
	}
	return &out
}

// InvalidRequestError reports a message that failed call classification.
func InvalidRequestError() *ErrorObject {
	return NewError(CodeInvalidRequest, "invalid request")
}

// MethodNotFoundError reports a call naming an unregistered procedure.
func MethodNotFoundError(method string) *ErrorObject {
	return NewError(CodeMethodNotFound, "method not found: "+method)
}

// InvalidParamsError reports a parameter payload the procedure could not
// accept. The binder or decoder failure rides in the data member.
func InvalidParamsError(cause error) *ErrorObject {
	e := NewError(CodeInvalidParams, "invalid params")
	if cause != nil {
		return e.WithData(cause.Error())
	}
	return e
}

// InternalError reports a defect inside the server or a handler.
func InternalError() *ErrorObject {
	return NewError(CodeInternalError, "internal error")
}

// ServerError reports an application-level failure. The message is a fixed
// string; the failure payload rides in the data member.
func ServerError(data interface{}) *ErrorObject {
	return NewError(CodeServerError, "Server error.").WithData(data)
}

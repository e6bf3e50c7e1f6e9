package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/wirerpc/wirerpc/wire"
)

type addParams struct {
	A int8 `json:"a"`
	B int8 `json:"b"`
}

type listParams struct {
	List []int `json:"list"`
}

// adderRegistry builds the small arithmetic service the engine tests run
// against.
func adderRegistry(tb testing.TB) *Registry {
	tb.Helper()
	reg := NewRegistry()

	MustFunc(reg, "wrapping_add", func(ctx context.Context, p addParams) (int8, error) {
		return p.A + p.B, nil
	})
	MustFunc(reg, "greet", func(ctx context.Context, _ struct{}) (string, error) {
		return "hello", nil
	})
	MustFunc(reg, "swallow", func(ctx context.Context, _ struct{}) (interface{}, error) {
		return nil, nil
	})
	MustFunc(reg, "repeat_list", func(ctx context.Context, p listParams) ([]int, error) {
		return append(p.List, p.List...), nil
	})
	MustFunc(reg, "fail", func(ctx context.Context, _ struct{}) (Result, error) {
		return Fail("tada!").Tagged(), nil
	})
	MustFunc(reg, "succeed", func(ctx context.Context, _ struct{}) (Result, error) {
		return OK(1).Tagged(), nil
	})
	return reg
}

type testOutput struct {
	JSONRPC string            `json:"jsonrpc"`
	Result  json.RawMessage   `json:"result"`
	Error   *wire.ErrorObject `json:"error"`
	ID      json.RawMessage   `json:"id"`
}

func decodeOutput(tb testing.TB, raw []byte) testOutput {
	tb.Helper()
	var out testOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		tb.Fatalf("response %s does not decode: %v", raw, err)
	}
	return out
}

func TestHandleRawSuccessScenarios(t *testing.T) {
	d := NewDispatcher(adderRegistry(t))

	tests := []struct {
		name    string
		request string
		want    string
	}{
		{
			name:    "positional params",
			request: `{"jsonrpc": "2.0", "method": "wrapping_add", "params": [1, 1], "id": 1}`,
			want:    `{"jsonrpc":"2.0","result":2,"id":1}`,
		},
		{
			name:    "named params",
			request: `{"jsonrpc": "2.0", "method": "wrapping_add", "params": {"a": 1, "b":1}, "id": 1}`,
			want:    `{"jsonrpc":"2.0","result":2,"id":1}`,
		},
		{
			name:    "named params out of order",
			request: `{"jsonrpc": "2.0", "method": "wrapping_add", "params": {"b": 2, "a": 40}, "id": 1}`,
			want:    `{"jsonrpc":"2.0","result":42,"id":1}`,
		},
		{
			name:    "empty object params",
			request: `{"jsonrpc": "2.0", "method": "greet", "params": {}, "id": 1}`,
			want:    `{"jsonrpc":"2.0","result":"hello","id":1}`,
		},
		{
			name:    "empty array params",
			request: `{"jsonrpc": "2.0", "method": "greet", "params": [], "id": 1}`,
			want:    `{"jsonrpc":"2.0","result":"hello","id":1}`,
		},
		{
			name:    "null params",
			request: `{"jsonrpc": "2.0", "method": "greet", "params": null, "id": 1}`,
			want:    `{"jsonrpc":"2.0","result":"hello","id":1}`,
		},
		{
			name:    "absent params",
			request: `{"jsonrpc": "2.0", "method": "greet", "id": 1}`,
			want:    `{"jsonrpc":"2.0","result":"hello","id":1}`,
		},
		{
			name:    "nil result encodes as null",
			request: `{"jsonrpc": "2.0", "method": "swallow", "params": [], "id": 1}`,
			want:    `{"jsonrpc":"2.0","result":null,"id":1}`,
		},
		{
			name:    "list result",
			request: `{"jsonrpc": "2.0", "method": "repeat_list", "params": [[1, 2, 3]], "id": 1}`,
			want:    `{"jsonrpc":"2.0","result":[1,2,3,1,2,3],"id":1}`,
		},
		{
			name:    "tagged failure rides the result member",
			request: `{"jsonrpc": "2.0", "method": "fail", "params": [], "id": 1}`,
			want:    `{"jsonrpc":"2.0","result":{"Err":"tada!"},"id":1}`,
		},
		{
			name:    "tagged success rides the result member",
			request: `{"jsonrpc": "2.0", "method": "succeed", "params": [], "id": 1}`,
			want:    `{"jsonrpc":"2.0","result":{"Ok":1},"id":1}`,
		},
		{
			name:    "string id echoes",
			request: `{"jsonrpc": "2.0", "method": "greet", "id": "req-7"}`,
			want:    `{"jsonrpc":"2.0","result":"hello","id":"req-7"}`,
		},
		{
			name:    "null id echoes",
			request: `{"jsonrpc": "2.0", "method": "greet", "id": null}`,
			want:    `{"jsonrpc":"2.0","result":"hello","id":null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.HandleRaw(context.Background(), []byte(tt.request))
			if string(got) != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestHandleRawErrorCodes(t *testing.T) {
	d := NewDispatcher(adderRegistry(t))

	tests := []struct {
		name    string
		request string
		want    int
	}{
		{
			name:    "method not found",
			request: `{"jsonrpc": "2.0", "method": "nonexist", "params": [], "id": 1}`,
			want:    wire.CodeMethodNotFound,
		},
		{
			name:    "reserved namespace is never registered",
			request: `{"jsonrpc": "2.0", "method": "rpc.ping", "id": 1}`,
			want:    wire.CodeMethodNotFound,
		},
		{
			name:    "empty method name dispatches and misses",
			request: `{"jsonrpc": "2.0", "method": "", "id": 1}`,
			want:    wire.CodeMethodNotFound,
		},
		{
			name:    "zero params for a two-param method",
			request: `{"jsonrpc": "2.0", "method": "wrapping_add", "params": [], "id": 1}`,
			want:    wire.CodeInvalidParams,
		},
		{
			name:    "absent params for a two-param method",
			request: `{"jsonrpc": "2.0", "method": "wrapping_add", "id": 1}`,
			want:    wire.CodeInvalidParams,
		},
		{
			name:    "misnamed parameter",
			request: `{"jsonrpc": "2.0", "method": "wrapping_add", "params": {"a": 1, "c": 2}, "id": 1}`,
			want:    wire.CodeInvalidParams,
		},
		{
			name:    "argument of the wrong type",
			request: `{"jsonrpc": "2.0", "method": "wrapping_add", "params": [[], []], "id": 1}`,
			want:    wire.CodeInvalidParams,
		},
		{
			name:    "too many positional params",
			request: `{"jsonrpc": "2.0", "method": "repeat_list", "params": [[1], [12]], "id": 1}`,
			want:    wire.CodeInvalidParams,
		},
		{
			name:    "message is not an object",
			request: `"hello"`,
			want:    wire.CodeInvalidRequest,
		},
		{
			name:    "wrong version marker",
			request: `{"jsonrpc": "1.0", "method": "greet", "id": 1}`,
			want:    wire.CodeInvalidRequest,
		},
		{
			name:    "malformed JSON",
			request: `{"jsonrpc":`,
			want:    wire.CodeInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := d.HandleRaw(context.Background(), []byte(tt.request))
			if raw == nil {
				t.Fatal("expected a failure output, got none")
			}
			out := decodeOutput(t, raw)
			if out.Error == nil {
				t.Fatalf("got %s, want an error output", raw)
			}
			if out.Error.Code != tt.want {
				t.Errorf("got code %d, want %d", out.Error.Code, tt.want)
			}
			if out.Result != nil {
				t.Errorf("error output also carries a result: %s", out.Result)
			}
		})
	}
}

func TestMalformedRequestAnswersNullID(t *testing.T) {
	d := NewDispatcher(adderRegistry(t))
	got := d.HandleRaw(context.Background(), []byte(`{"jsonrpc":`))
	want := `{"jsonrpc":"2.0","error":{"code":-32600,"message":"invalid request"},"id":null}`
	if string(got) != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestInvalidCallEchoesSalvagedID(t *testing.T) {
	d := NewDispatcher(adderRegistry(t))
	got := d.HandleRaw(context.Background(), []byte(`{"method": "greet", "id": 7}`))
	out := decodeOutput(t, got)
	if out.Error == nil || out.Error.Code != wire.CodeInvalidRequest {
		t.Fatalf("got %s, want an invalid request failure", got)
	}
	if string(out.ID) != `7` {
		t.Errorf("got id %s, want 7", out.ID)
	}
}

type quotaError struct {
	Limit int `json:"limit"`
	Used  int `json:"used"`
}

func (e *quotaError) Error() string { return "quota exceeded" }

func (e *quotaError) ErrorData() interface{} { return e }

func TestHandlerErrorChannels(t *testing.T) {
	reg := NewRegistry()
	MustFunc(reg, "apperr", func(ctx context.Context, _ struct{}) (int, error) {
		return 0, errors.New("boom")
	})
	MustFunc(reg, "quota", func(ctx context.Context, _ struct{}) (int, error) {
		return 0, &quotaError{Limit: 10, Used: 11}
	})
	MustFunc(reg, "custom", func(ctx context.Context, _ struct{}) (int, error) {
		return 0, wire.NewError(-32050, "custom failure")
	})
	MustFunc(reg, "panics", func(ctx context.Context, _ struct{}) (int, error) {
		panic("kaboom")
	})
	MustFunc(reg, "failres", func(ctx context.Context, _ struct{}) (Result, error) {
		return Fail("tada!"), nil
	})
	d := NewDispatcher(reg)

	t.Run("plain error becomes a server error", func(t *testing.T) {
		raw := d.HandleRaw(context.Background(), []byte(`{"jsonrpc":"2.0","method":"apperr","id":1}`))
		out := decodeOutput(t, raw)
		if out.Error == nil || out.Error.Code != wire.CodeServerError {
			t.Fatalf("got %s, want a server error", raw)
		}
		if out.Error.Message != "Server error." {
			t.Errorf("got message %q, want %q", out.Error.Message, "Server error.")
		}
		if string(out.Error.Data) != `"boom"` {
			t.Errorf("got data %s, want the error text", out.Error.Data)
		}
	})

	t.Run("ErrorData payload replaces the error text", func(t *testing.T) {
		raw := d.HandleRaw(context.Background(), []byte(`{"jsonrpc":"2.0","method":"quota","id":1}`))
		out := decodeOutput(t, raw)
		if out.Error == nil || out.Error.Code != wire.CodeServerError {
			t.Fatalf("got %s, want a server error", raw)
		}
		if string(out.Error.Data) != `{"limit":10,"used":11}` {
			t.Errorf("got data %s, want the structured payload", out.Error.Data)
		}
	})

	t.Run("error objects pass through", func(t *testing.T) {
		raw := d.HandleRaw(context.Background(), []byte(`{"jsonrpc":"2.0","method":"custom","id":1}`))
		out := decodeOutput(t, raw)
		if out.Error == nil || out.Error.Code != -32050 {
			t.Fatalf("got %s, want code -32050", raw)
		}
		if out.Error.Message != "custom failure" {
			t.Errorf("got message %q, want the handler's own", out.Error.Message)
		}
	})

	t.Run("panic answers an internal error", func(t *testing.T) {
		raw := d.HandleRaw(context.Background(), []byte(`{"jsonrpc":"2.0","method":"panics","id":1}`))
		out := decodeOutput(t, raw)
		if out.Error == nil || out.Error.Code != wire.CodeInternalError {
			t.Fatalf("got %s, want an internal error", raw)
		}
	})

	t.Run("untagged fail rides the error data member", func(t *testing.T) {
		got := d.HandleRaw(context.Background(), []byte(`{"jsonrpc":"2.0","method":"failres","id":1}`))
		want := `{"jsonrpc":"2.0","error":{"code":-32000,"message":"Server error.","data":"tada!"},"id":1}`
		if string(got) != want {
			t.Errorf("got  %s\nwant %s", got, want)
		}
	})
}

func TestNotificationsProduceNoOutput(t *testing.T) {
	called := false
	reg := adderRegistry(t)
	MustFunc(reg, "note", func(ctx context.Context, _ struct{}) (interface{}, error) {
		called = true
		return nil, nil
	})
	d := NewDispatcher(reg)

	if got := d.HandleRaw(context.Background(), []byte(`{"jsonrpc":"2.0","method":"note","params":[]}`)); got != nil {
		t.Errorf("notification answered: %s", got)
	}
	if !called {
		t.Error("notification handler did not run")
	}

	// Failures stay silent too.
	if got := d.HandleRaw(context.Background(), []byte(`{"jsonrpc":"2.0","method":"nonexist"}`)); got != nil {
		t.Errorf("failing notification answered: %s", got)
	}
}

func TestBatchKeepsOrderAndDropsNotifications(t *testing.T) {
	d := NewDispatcher(adderRegistry(t))
	request := `[
		{"jsonrpc":"2.0","method":"wrapping_add","params":[1,2],"id":"first"},
		{"jsonrpc":"2.0","method":"greet"},
		5,
		{"jsonrpc":"2.0","method":"greet","id":"last"}
	]`
	raw := d.HandleRaw(context.Background(), []byte(request))

	var outs []testOutput
	if err := json.Unmarshal(raw, &outs); err != nil {
		t.Fatalf("batch response %s does not decode: %v", raw, err)
	}
	if len(outs) != 3 {
		t.Fatalf("got %d outputs, want 3 (notification filtered)", len(outs))
	}
	if string(outs[0].ID) != `"first"` || string(outs[0].Result) != `3` {
		t.Errorf("output 0 = %+v, want result 3 for id first", outs[0])
	}
	if outs[1].Error == nil || outs[1].Error.Code != wire.CodeInvalidRequest || string(outs[1].ID) != `null` {
		t.Errorf("output 1 = %+v, want an invalid request failure with null id", outs[1])
	}
	if string(outs[2].ID) != `"last"` || string(outs[2].Result) != `"hello"` {
		t.Errorf("output 2 = %+v, want hello for id last", outs[2])
	}
}

func TestBatchOfOneStaysAnArray(t *testing.T) {
	d := NewDispatcher(adderRegistry(t))
	got := d.HandleRaw(context.Background(), []byte(`[{"jsonrpc":"2.0","method":"greet","id":1}]`))
	want := `[{"jsonrpc":"2.0","result":"hello","id":1}]`
	if string(got) != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestBatchWithOnlyNotifications(t *testing.T) {
	d := NewDispatcher(adderRegistry(t))
	raw := `[{"jsonrpc":"2.0","method":"greet"},{"jsonrpc":"2.0","method":"swallow"}]`
	if got := d.HandleRaw(context.Background(), []byte(raw)); got != nil {
		t.Errorf("all-notification batch answered: %s", got)
	}
}

func TestEmptyBatch(t *testing.T) {
	d := NewDispatcher(adderRegistry(t))
	if got := d.HandleRaw(context.Background(), []byte(`[]`)); got != nil {
		t.Errorf("empty batch answered: %s", got)
	}
}

func TestBatchRunsSequentially(t *testing.T) {
	var order []string
	reg := NewRegistry()
	for _, name := range []string{"one", "two", "three"} {
		name := name
		MustFunc(reg, name, func(ctx context.Context, _ struct{}) (string, error) {
			order = append(order, name)
			return name, nil
		})
	}
	d := NewDispatcher(reg)

	request := `[
		{"jsonrpc":"2.0","method":"one","id":1},
		{"jsonrpc":"2.0","method":"two","id":2},
		{"jsonrpc":"2.0","method":"three","id":3}
	]`
	d.HandleRaw(context.Background(), []byte(request))

	if !reflect.DeepEqual(order, []string{"one", "two", "three"}) {
		t.Errorf("got execution order %v, want request order", order)
	}
}

func TestHandleCallInvalidKeepsSalvagedID(t *testing.T) {
	d := NewDispatcher(NewRegistry())
	out, ok := d.HandleCall(context.Background(), wire.Call{Kind: wire.CallInvalid, ID: wire.ID(`9`)})
	if !ok {
		t.Fatal("invalid call produced no output")
	}
	if out.Error == nil || out.Error.Code != wire.CodeInvalidRequest {
		t.Fatalf("got %+v, want an invalid request failure", out)
	}
	if string(out.ID) != `9` {
		t.Errorf("got id %s, want 9", out.ID)
	}
}

func TestHandleCallNilContext(t *testing.T) {
	reg := NewRegistry()
	MustFunc(reg, "ctx", func(ctx context.Context, _ struct{}) (bool, error) {
		return ctx != nil, nil
	})
	d := NewDispatcher(reg)

	out, ok := d.HandleCall(nil, wire.Call{Kind: wire.CallMethod, Method: "ctx", ID: wire.ID(`1`)})
	if !ok || string(out.Result) != `true` {
		t.Errorf("got %+v, want a true result from a non-nil context", out)
	}
}

func TestHandleRequestEmpty(t *testing.T) {
	d := NewDispatcher(NewRegistry())
	if _, ok := d.HandleRequest(context.Background(), wire.Request{}); ok {
		t.Error("empty request produced a response")
	}
}

func TestContextValueReachesHandler(t *testing.T) {
	type ctxKey struct{}
	reg := NewRegistry()
	MustFunc(reg, "whoami", func(ctx context.Context, _ struct{}) (string, error) {
		v, _ := ctx.Value(ctxKey{}).(string)
		return v, nil
	})
	d := NewDispatcher(reg)

	ctx := context.WithValue(context.Background(), ctxKey{}, "alice")
	got := d.HandleRaw(ctx, []byte(`{"jsonrpc":"2.0","method":"whoami","id":1}`))
	want := `{"jsonrpc":"2.0","result":"alice","id":1}`
	if string(got) != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestCallHookObservesOutcomes(t *testing.T) {
	type event struct {
		method string
		code   int
		note   bool
	}
	var events []event
	d := NewDispatcher(adderRegistry(t), WithCallHook(func(method string, code int, notification bool, elapsed time.Duration) {
		events = append(events, event{method, code, notification})
	}))

	request := `[
		{"jsonrpc":"2.0","method":"greet","id":1},
		{"jsonrpc":"2.0","method":"nonexist","id":2},
		5,
		{"jsonrpc":"2.0","method":"swallow"}
	]`
	d.HandleRaw(context.Background(), []byte(request))

	want := []event{
		{"greet", 0, false},
		{"nonexist", wire.CodeMethodNotFound, false},
		{"", wire.CodeInvalidRequest, false},
		{"swallow", 0, true},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("got events %v, want %v", events, want)
	}
}

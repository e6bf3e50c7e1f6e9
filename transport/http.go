package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/wirerpc/wirerpc/codec"
	"github.com/wirerpc/wirerpc/dispatch"
	"github.com/wirerpc/wirerpc/wire"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes = 4 << 20

// Option configures transport servers. Options that do not apply to a
// server type are ignored by it.
type Option func(*options)

type options struct {
	codecs   []codec.Codec
	maxBody  int64
	maxBatch int
	log      zerolog.Logger
	onHTTP   func(status int, elapsed time.Duration)
	onBatch  func(size int)
}

func newOptions(opts []Option) options {
	o := options{
		codecs:  []codec.Codec{codec.JSON{}},
		maxBody: DefaultMaxBodyBytes,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithCodecs sets the codecs served, matched against the request
// Content-Type. The first codec is the default for requests that carry
// none.
func WithCodecs(codecs ...codec.Codec) Option {
	return func(o *options) { o.codecs = codecs }
}

// WithMaxBodyBytes caps request bodies; larger requests answer 413.
// Non-positive values keep the default cap.
func WithMaxBodyBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBody = n
		}
	}
}

// WithMaxBatch caps batch sizes; larger batches answer a single invalid
// request failure. Zero means no cap.
func WithMaxBatch(n int) Option {
	return func(o *options) { o.maxBatch = n }
}

// WithLogger sets the transport logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithHTTPHook installs a hook observing every HTTP request's status and
// duration.
func WithHTTPHook(hook func(status int, elapsed time.Duration)) Option {
	return func(o *options) { o.onHTTP = hook }
}

// WithBatchHook installs a hook observing the size of every batch request.
func WithBatchHook(hook func(size int)) Option {
	return func(o *options) { o.onBatch = hook }
}

// Handler serves the protocol over HTTP. Calls arrive as POST bodies in any
// negotiated codec; responses answer 200 in the same codec, and requests
// that produce no response (notifications, empty batches) answer 204.
type Handler struct {
	dispatcher *dispatch.Dispatcher
	opts       options
}

// NewHandler builds an http.Handler dispatching to d.
func NewHandler(d *dispatch.Dispatcher, opts ...Option) *Handler {
	return &Handler{dispatcher: d, opts: newOptions(opts)}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := h.serve(w, r)
	elapsed := time.Since(start)
	if h.opts.onHTTP != nil {
		h.opts.onHTTP(status, elapsed)
	}
	h.opts.log.Debug().
		Int("status", status).
		Dur("elapsed", elapsed).
		Msg("rpc request")
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) int {
	if r.Method != http.MethodPost {
		http.Error(w, "JSON-RPC requires POST", http.StatusMethodNotAllowed)
		return http.StatusMethodNotAllowed
	}

	c, ok := codec.Match(h.opts.codecs, r.Header.Get("Content-Type"))
	if !ok {
		http.Error(w, "unsupported content type", http.StatusUnsupportedMediaType)
		return http.StatusUnsupportedMediaType
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.opts.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return http.StatusRequestEntityTooLarge
		}
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return http.StatusBadRequest
	}

	resp, ok := h.dispatchBody(r.Context(), c, body)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return http.StatusNoContent
	}

	respJSON, err := json.Marshal(resp)
	if err != nil {
		h.opts.log.Error().Err(err).Msg("response failed to encode")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return http.StatusInternalServerError
	}
	payload, err := c.Encode(respJSON)
	if err != nil {
		h.opts.log.Error().Err(err).Str("codec", c.Name()).Msg("response transcode failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", c.ContentType())
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(payload); err != nil {
		h.opts.log.Debug().Err(err).Msg("response write failed")
	}
	return http.StatusOK
}

// dispatchBody transcodes, parses and dispatches one request body. Payloads
// the codec cannot decode, malformed JSON and batches over the configured
// cap all dispatch as a single invalid call, answering one invalid request
// failure with a null id.
func (h *Handler) dispatchBody(ctx context.Context, c codec.Codec, body []byte) (wire.Response, bool) {
	invalid := wire.Request{Calls: []wire.Call{{Kind: wire.CallInvalid}}}

	jsonBody, err := c.Decode(body)
	if err != nil {
		h.opts.log.Debug().Err(err).Str("codec", c.Name()).Msg("request transcode failed")
		return h.dispatcher.HandleRequest(ctx, invalid)
	}

	req, err := wire.ParseRequest(jsonBody)
	switch {
	case err != nil:
		h.opts.log.Debug().Err(err).Msg("request is not well-formed")
		req = invalid
	case req.Batch:
		if h.opts.onBatch != nil {
			h.opts.onBatch(len(req.Calls))
		}
		if h.opts.maxBatch > 0 && len(req.Calls) > h.opts.maxBatch {
			h.opts.log.Warn().
				Int("size", len(req.Calls)).
				Int("limit", h.opts.maxBatch).
				Msg("batch over the configured cap")
			req = invalid
		}
	}

	return h.dispatcher.HandleRequest(ctx, req)
}

// Package codec translates between transport encodings and the JSON the
// dispatch engine speaks. The engine stays JSON-only; alternative encodings
// transcode at the transport edge in both directions.
package codec

import "strings"

// Codec converts one transport encoding to and from request/response JSON.
type Codec interface {
	// Name is the short codec name used in configuration.
	Name() string
	// ContentType is the MIME type the codec serves.
	ContentType() string
	// Decode converts an incoming payload to request JSON.
	Decode(payload []byte) ([]byte, error)
	// Encode converts response JSON to the outgoing payload.
	Encode(response []byte) ([]byte, error)
}

// JSON is the identity codec: payloads already are protocol JSON, so both
// directions pass bytes through untouched. Malformed payloads pass through
// too; the engine's parser owns that failure.
type JSON struct{}

func (JSON) Name() string        { return "json" }
func (JSON) ContentType() string { return "application/json" }

func (JSON) Decode(payload []byte) ([]byte, error) { return payload, nil }

func (JSON) Encode(response []byte) ([]byte, error) { return response, nil }

// Match picks the codec serving contentType, comparing the media type and
// ignoring parameters such as charset. An empty content type matches the
// first codec.
func Match(codecs []Codec, contentType string) (Codec, bool) {
	if len(codecs) == 0 {
		return nil, false
	}
	if contentType == "" {
		return codecs[0], true
	}
	media := contentType
	if i := strings.IndexByte(media, ';'); i >= 0 {
		media = media[:i]
	}
	media = strings.ToLower(strings.TrimSpace(media))
	for _, c := range codecs {
		if media == c.ContentType() {
			return c, true
		}
	}
	return nil, false
}

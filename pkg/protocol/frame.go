package protocol

import (
	"bytes"
	"encoding/json"
	"strings"
)

// TypeCodeSize is the number of characters of the type code prefix.
const TypeCodeSize = 2

// ConcatSeparator separates frames inside a concat frame.
const ConcatSeparator = "\x00"

// Frame is one decoded protocol message.
type Frame struct {
	Type MessageType

	// Payload is the raw JSON payload. Nil when the frame carries no payload.
	Payload json.RawMessage
}

// HasPayload reports whether the frame carried a payload on the wire.
func (f Frame) HasPayload() bool {
	return f.Payload != nil
}

// Unmarshal decodes the payload into v.
func (f Frame) Unmarshal(v any) error {
	if f.Payload == nil {
		return ErrInvalidPayload
	}
	return json.Unmarshal(f.Payload, v)
}

// Encode returns the wire representation of the frame.
func (f Frame) Encode() string {
	if f.Payload == nil {
		return EncodeEmpty(f.Type)
	}
	return typeCode(f.Type) + string(f.Payload)
}

// Encode serializes payload as JSON and prefixes it with the type code.
// A nil payload is encoded as JSON null; use EncodeEmpty to omit the payload.
func Encode(t MessageType, payload any) (string, error) {
	if t > MaxMessageType {
		return "", ErrTypeOutOfRange
	}
	data, err := marshal(payload)
	if err != nil {
		return "", err
	}
	return typeCode(t) + string(data), nil
}

// EncodeEmpty returns a frame of type t without payload.
func EncodeEmpty(t MessageType) string {
	return typeCode(t)
}

// DecodeFrame decodes a single frame without expanding concat frames.
func DecodeFrame(raw string) (Frame, error) {
	if len(raw) < TypeCodeSize {
		return Frame{}, &DecodeError{Raw: raw, Err: ErrFrameTooShort}
	}
	hi, lo := raw[0], raw[1]
	if !isDigit(hi) || !isDigit(lo) {
		return Frame{}, &DecodeError{Raw: raw, Err: ErrInvalidType}
	}
	f := Frame{Type: MessageType((hi-'0')*10 + (lo - '0'))}

	rest := raw[TypeCodeSize:]
	if rest == "" {
		return f, nil
	}
	if len(rest) > MaxFrameSize {
		return Frame{}, &DecodeError{Raw: raw, Err: ErrPayloadTooLarge}
	}
	if !json.Valid([]byte(rest)) {
		return Frame{}, &DecodeError{Raw: raw, Err: ErrInvalidPayload}
	}
	f.Payload = json.RawMessage(rest)
	return f, nil
}

// Codec decodes transport messages, expanding concat frames.
type Codec struct {
	// Concat is the reserved type code of concat frames.
	Concat MessageType
}

// DefaultCodec expands frames of type MessageConcat.
var DefaultCodec = Codec{Concat: MessageConcat}

// Walk decodes raw and calls fn for every contained frame in wire order.
// Concat frames are expanded recursively and never passed to fn. Walk stops
// at the first decode error or the first error returned by fn; frames before
// that point have already been delivered.
func (c Codec) Walk(raw string, fn func(Frame) error) error {
	return c.walk(raw, 0, fn)
}

func (c Codec) walk(raw string, depth int, fn func(Frame) error) error {
	if len(raw) < TypeCodeSize {
		return &DecodeError{Raw: raw, Err: ErrFrameTooShort}
	}
	if c.isConcat(raw) {
		if depth >= MaxConcatDepth {
			return &DecodeError{Raw: raw, Err: ErrConcatTooDeep}
		}
		body := raw[TypeCodeSize:]
		if body == "" {
			return nil
		}
		for _, piece := range strings.Split(body, ConcatSeparator) {
			if err := c.walk(piece, depth+1, fn); err != nil {
				return err
			}
		}
		return nil
	}

	f, err := DecodeFrame(raw)
	if err != nil {
		return err
	}
	return fn(f)
}

// Decode decodes raw into the ordered list of frames it contains.
func (c Codec) Decode(raw string) ([]Frame, error) {
	var frames []Frame
	err := c.Walk(raw, func(f Frame) error {
		frames = append(frames, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return frames, nil
}

// Join concatenates already encoded frames into a single concat frame.
func (c Codec) Join(frames ...string) string {
	return typeCode(c.Concat) + strings.Join(frames, ConcatSeparator)
}

func (c Codec) isConcat(raw string) bool {
	code := typeCode(c.Concat)
	return raw[0] == code[0] && raw[1] == code[1]
}

// typeCode renders t as exactly two decimal digits.
func typeCode(t MessageType) string {
	n := int(t) % 100
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// marshal encodes v without HTML escaping, matching what browsers produce.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec names accepted by -codec
const (
	CodecJSON    = "json"
	CodecMsgpack = "msgpack"
)

// Frame is an encoded outbound message ready for the socket.
type Frame struct {
	Data   []byte
	Binary bool
}

// Codec encodes outbound messages.
type Codec interface {
	Encode(msg any) (Frame, error)
}

// NewCodec returns the codec registered under name
func NewCodec(name string) (Codec, error) {
	switch name {
	case CodecJSON, "":
		return jsonCodec{}, nil
	case CodecMsgpack:
		return msgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

type jsonCodec struct{}

func (jsonCodec) Encode(msg any) (Frame, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Data: data}, nil
}

// msgpackCodec reuses the json struct tags so both encodings share field names.
type msgpackCodec struct{}

func (msgpackCodec) Encode(msg any) (Frame, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(msg); err != nil {
		return Frame{}, err
	}
	return Frame{Data: buf.Bytes(), Binary: true}, nil
}

// DecodeClientMessage parses an inbound frame. Text frames are JSON, binary
// frames are msgpack. The type is read first: an unreadable frame or an
// unknown type is a protocol error, while a join whose fields do not decode
// is a validation error so the join can be rejected.
func DecodeClientMessage(data []byte, binary bool) (ClientMessage, error) {
	var msg ClientMessage
	if len(data) == 0 {
		return msg, fmt.Errorf("%w: empty frame", ErrProtocol)
	}
	var head struct {
		Type string `json:"type"`
	}
	if err := unmarshalFrame(data, binary, &head); err != nil {
		return msg, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	switch head.Type {
	case MsgJoin, MsgMove, MsgChat:
	case "":
		return msg, fmt.Errorf("%w: missing type", ErrProtocol)
	default:
		return msg, fmt.Errorf("%w: unknown type %q", ErrProtocol, head.Type)
	}

	if err := unmarshalFrame(data, binary, &msg); err != nil {
		if head.Type == MsgJoin {
			return ClientMessage{Type: MsgJoin}, fmt.Errorf("%w: malformed join: %v", ErrValidation, err)
		}
		return msg, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return msg, nil
}

func unmarshalFrame(data []byte, binary bool, v any) error {
	if !binary {
		return json.Unmarshal(data, v)
	}
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

package main

import (
	"context"
	"errors"
	"log"
)

type handlerState int

const (
	awaitingJoin handlerState = iota
	joined
	closed
)

// ConnectionHandler runs the per-connection protocol: decode, check the
// connection's state, forward intents to the game loop.
type ConnectionHandler struct {
	loop  *GameLoop
	codec Codec
	sink  Sink
	state handlerState
	name  string
}

// NewConnectionHandler creates a handler for one connection
func NewConnectionHandler(loop *GameLoop, codec Codec, sink Sink) *ConnectionHandler {
	return &ConnectionHandler{loop: loop, codec: codec, sink: sink}
}

// Open attaches the connection as a spectator so it receives updates before joining.
func (h *ConnectionHandler) Open(ctx context.Context) error {
	return h.loop.Submit(ctx, attachIntent{Sink: h.sink})
}

// HandleFrame processes one inbound frame. A non-nil error means the
// connection must be closed.
func (h *ConnectionHandler) HandleFrame(ctx context.Context, data []byte, binary bool) error {
	if h.state == closed {
		return ErrPeerGone
	}
	msg, err := DecodeClientMessage(data, binary)
	if errors.Is(err, ErrValidation) {
		log.Printf("join rejected: %v", err)
		h.reply(RejectedMsg{Type: MsgRejected, Reason: err.Error()})
		return nil
	}
	if err != nil {
		h.reply(ErrorMsg{Type: MsgError, Message: err.Error()})
		return err
	}

	switch msg.Type {
	case MsgJoin:
		res, err := h.loop.Join(ctx, h.sink, msg.Name, msg.Color)
		switch {
		case err == nil:
			h.state, h.name = joined, res.Name
		case errors.Is(err, ErrStopped), errors.Is(err, context.Canceled):
			return err
		default:
			// rejected already pushed by the loop; the client may retry
			log.Printf("join %q rejected: %v", msg.Name, err)
		}
		return nil
	case MsgMove:
		if h.state != joined {
			return nil
		}
		return h.loop.Submit(ctx, playerMove{Sink: h.sink, DX: msg.DX, DY: msg.DY})
	case MsgChat:
		if h.state != joined {
			return nil
		}
		return h.loop.Submit(ctx, chatIntent{Sink: h.sink, Message: msg.Message})
	}
	return nil
}

// Close tells the loop the peer is gone. The loop removes the session and
// its entity in one step.
func (h *ConnectionHandler) Close(ctx context.Context) {
	if h.state == closed {
		return
	}
	h.state = closed
	if err := h.loop.Submit(ctx, leaveIntent{Sink: h.sink}); err != nil && !errors.Is(err, ErrStopped) {
		log.Printf("leave for %s not delivered: %v", h.name, err)
	}
}

// reply sends msg straight to the peer, bypassing the game loop
func (h *ConnectionHandler) reply(msg any) {
	frame, err := h.codec.Encode(msg)
	if err != nil {
		return
	}
	_ = h.sink.Send(frame)
}

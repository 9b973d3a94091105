package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

// SSE event names. Enveloped payloads and bare results ride on "message",
// bare errors on "error", and "done" always terminates the stream.
const (
	eventMessage = "message"
	eventError   = "error"
	eventDone    = "done"
)

// Frame is one Server-Sent Event: an event name plus a JSON payload.
type Frame struct {
	Event string
	Data  any
}

func doneFrame() Frame {
	return Frame{Event: eventDone, Data: map[string]any{}}
}

// resultFrame wraps a result for the client: JSON-RPC enveloped when the
// request carried jsonrpc and id, bare otherwise.
func resultFrame(req *Request, result any) Frame {
	if req.enveloped() {
		return Frame{Event: eventMessage, Data: rpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  result,
		}}
	}
	return Frame{Event: eventMessage, Data: result}
}

// errorFrame wraps an error: a JSON-RPC error object on the message event
// when enveloped, a bare error event otherwise.
func errorFrame(req *Request, code int, message string) Frame {
	if req != nil && req.enveloped() {
		return Frame{Event: eventMessage, Data: rpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &rpcError{Code: code, Message: message},
		}}
	}
	return Frame{Event: eventError, Data: map[string]any{"message": message}}
}

// sseHeaders prepares w for an event stream.
func sseHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// writeFrames streams frames to the client, flushing after each one. A
// cancelled context means the client disconnected; that stops the stream
// silently.
func writeFrames(ctx context.Context, w http.ResponseWriter, frames []Frame) {
	log := zerolog.Ctx(ctx)
	flusher, _ := w.(http.Flusher)

	for _, frame := range frames {
		select {
		case <-ctx.Done():
			log.Debug().Msg("Client disconnected, aborting stream")
			return
		default:
		}

		data, err := json.Marshal(frame.Data)
		if err != nil {
			log.Error().Err(err).Str("event", frame.Event).Msg("Failed to encode frame")
			data = []byte("{}")
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", frame.Event, data); err != nil {
			log.Debug().Err(err).Msg("Client disconnected, aborting stream")
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

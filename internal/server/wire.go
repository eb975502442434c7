// Package server hosts running tables behind a websocket gateway. Each
// table lives in a Room that serializes intents, broadcasts per-viewer
// views and drives automated seats through the AI policy pipeline.
package server

import (
	"github.com/baizegames/parlor/candidates"
	"github.com/baizegames/parlor/engine"
	"github.com/baizegames/parlor/view"
)

// Client frame types.
const (
	FrameHello  = "hello"
	FrameIntent = "intent"
)

// Server frame types.
const (
	FrameView       = "view"
	FrameCandidates = "candidates"
	FrameError      = "error"
	FrameFatal      = "fatal"
)

// ClientFrame is one message from a connected player. A hello carries the
// session token; an intent carries a token-space intent to validate.
type ClientFrame struct {
	Type   string         `json:"type"`
	Token  string         `json:"token,omitempty"`
	Intent *engine.Intent `json:"intent,omitempty"`
}

// ServerFrame is one message to a connected player. View and candidate
// frames are per-viewer: card ids are already remapped into that viewer's
// token space.
type ServerFrame struct {
	Type       string                 `json:"type"`
	View       *view.View             `json:"view,omitempty"`
	Candidates []candidates.Candidate `json:"candidates,omitempty"`
	Reason     string                 `json:"reason,omitempty"`
	Message    string                 `json:"message,omitempty"`
}

func errorFrame(reason string) ServerFrame {
	return ServerFrame{Type: FrameError, Reason: reason}
}

func fatalFrame(message string) ServerFrame {
	return ServerFrame{Type: FrameFatal, Message: message}
}

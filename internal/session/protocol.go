package session

import (
	"encoding/json"

	"github.com/inamate/design/internal/command"
	"github.com/inamate/design/internal/render"
)

type Message struct {
	Type      string          `json:"type"`
	ProjectID string          `json:"projectId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const (
	TypeError = "error"

	// Connection
	TypeWelcome = "welcome"

	// Document sync
	TypeDocSync = "doc.sync"

	// Commands
	TypeOpSubmit = "op.submit"
	TypeOpAck    = "op.ack"
	TypeOpNack   = "op.nack"

	TypeRenderFrame = "render.frame"
	TypeSaved       = "doc.saved"
)

type WelcomePayload struct {
	ClientID  string `json:"clientId"`
	ProjectID string `json:"projectId"`
}

type DocSyncPayload struct {
	Document json.RawMessage `json:"document"`
	command.State
}

type AckPayload struct {
	CommandID string `json:"commandId"`
	// Created is set by commands that make a new object.
	Created string `json:"created,omitempty"`
	// Hit is set by selectAt.
	Hit string `json:"hit,omitempty"`
	command.State
}

type NackPayload struct {
	CommandID string `json:"commandId"`
	Reason    string `json:"reason"`
}

type FramePayload struct {
	Commands []render.DrawCommand `json:"commands"`
}

type SavedPayload struct {
	Version int `json:"version"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func newMessage(typ string, payload any) (*Message, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return &Message{Type: typ, Payload: raw}, nil
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"kindklick/internal/models"
)

// Message types understood by Dispatch
const (
	MsgRequestAccess = "REQUEST_ACCESS"
	MsgApproveDomain = "APPROVE_DOMAIN"
	MsgPing          = "PING"
)

var ErrUnknownMessage = errors.New("Unknown message type")

// Message is a typed request from a UI surface
type Message struct {
	Type            string `json:"type"`
	URL             string `json:"url,omitempty"`
	Domain          string `json:"domain,omitempty"`
	Category        string `json:"category,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Mode            string `json:"mode,omitempty"`
	PIN             string `json:"pin,omitempty"`
}

// UnmarshalJSON also accepts durationMinutes, the spelling the options page
// sends.
func (m *Message) UnmarshalJSON(data []byte) error {
	type message Message
	if err := json.Unmarshal(data, (*message)(m)); err != nil {
		return err
	}
	return camelMinutes(data, &m.DurationMinutes)
}

// camelMinutes fills *minutes from a durationMinutes key when the
// snake_case field was absent or zero.
func camelMinutes(data []byte, minutes *int) error {
	var alt struct {
		DurationMinutes *int `json:"durationMinutes"`
	}
	if err := json.Unmarshal(data, &alt); err != nil {
		return err
	}
	if *minutes == 0 && alt.DurationMinutes != nil {
		*minutes = *alt.DurationMinutes
	}
	return nil
}

// MessageResponse is the {ok, error} envelope returned for every message
type MessageResponse struct {
	OK       bool                  `json:"ok"`
	Error    string                `json:"error,omitempty"`
	Ts       int64                 `json:"ts,omitempty"`
	Request  *models.AccessRequest `json:"request,omitempty"`
	Approval *models.Approval      `json:"approval,omitempty"`
}

// Dispatcher routes messages to the owning service
type Dispatcher struct {
	approvals *ApprovalService
	requests  *RequestService
	now       func() time.Time
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(approvals *ApprovalService, requests *RequestService) *Dispatcher {
	return &Dispatcher{approvals: approvals, requests: requests, now: time.Now}
}

// Dispatch handles one message. A PIN in the message body is merged into
// creds. The returned error is also reflected in the response.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message, creds Credentials) (MessageResponse, error) {
	if msg.PIN != "" && creds.PIN == "" {
		creds.PIN = msg.PIN
	}

	switch msg.Type {
	case MsgPing:
		return MessageResponse{OK: true, Ts: d.now().UnixMilli()}, nil

	case MsgRequestAccess:
		req, err := d.requests.Record(ctx, AccessRequestInput{
			URL:      msg.URL,
			Domain:   msg.Domain,
			Category: msg.Category,
		})
		if err != nil {
			return failed(err), err
		}
		return MessageResponse{OK: true, Request: &req}, nil

	case MsgApproveDomain:
		approval, err := d.approvals.Grant(ctx, GrantRequest{
			Domain:          msg.Domain,
			DurationMinutes: msg.DurationMinutes,
			Mode:            models.ApprovalMode(msg.Mode),
		}, creds)
		if err != nil {
			return failed(err), err
		}
		return MessageResponse{OK: true, Approval: approval}, nil

	default:
		return failed(ErrUnknownMessage), ErrUnknownMessage
	}
}

func failed(err error) MessageResponse {
	return MessageResponse{OK: false, Error: err.Error()}
}

package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedArguments is returned when tool arguments cannot be decoded.
var ErrMalformedArguments = errors.New("malformed tool arguments")

// ToolArgumentsKind tags which representation a ToolArguments value holds.
type ToolArgumentsKind int

const (
	ArgumentsEmpty ToolArgumentsKind = iota
	ArgumentsStructured
	ArgumentsRaw
)

// ToolArguments is what the voice agent sends as function arguments: either a JSON object
// or a string holding serialized JSON that still has to be parsed.
type ToolArguments struct {
	kind       ToolArgumentsKind
	structured json.RawMessage
	raw        string
}

// NewStructuredArguments wraps an already-structured value.
func NewStructuredArguments(v interface{}) (ToolArguments, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return ToolArguments{}, err
	}
	return ToolArguments{kind: ArgumentsStructured, structured: data}, nil
}

// NewRawArguments wraps a serialized payload.
func NewRawArguments(s string) ToolArguments {
	return ToolArguments{kind: ArgumentsRaw, raw: s}
}

// Kind reports the representation.
func (a ToolArguments) Kind() ToolArgumentsKind {
	return a.kind
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *ToolArguments) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*a = ToolArguments{kind: ArgumentsEmpty}
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*a = ToolArguments{kind: ArgumentsRaw, raw: s}
	default:
		*a = ToolArguments{kind: ArgumentsStructured, structured: append(json.RawMessage(nil), trimmed...)}
	}
	return nil
}

// MarshalJSON implements json.Marshaler, preserving the original representation.
func (a ToolArguments) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case ArgumentsStructured:
		return a.structured, nil
	case ArgumentsRaw:
		return json.Marshal(a.raw)
	}
	return []byte("null"), nil
}

// Decode parses the arguments into dst. Empty arguments decode as an empty object.
func (a ToolArguments) Decode(dst interface{}) error {
	var payload []byte
	switch a.kind {
	case ArgumentsEmpty:
		return nil
	case ArgumentsRaw:
		if strings.TrimSpace(a.raw) == "" {
			return nil
		}
		payload = []byte(a.raw)
	case ArgumentsStructured:
		payload = a.structured
	}
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || payload[0] != '{' {
		return fmt.Errorf("%w: expected a JSON object", ErrMalformedArguments)
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedArguments, err)
	}
	return nil
}

// ToolFunction names the invoked tool and carries its arguments.
type ToolFunction struct {
	Name      string        `json:"name"`
	Arguments ToolArguments `json:"arguments"`
}

// ToolCall is one function invocation requested by the voice agent.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type,omitempty"`
	Function ToolFunction `json:"function"`
}

// CallInfo is the call metadata attached to webhook messages.
type CallInfo struct {
	ID            string `json:"id"`
	PhoneNumberID string `json:"phoneNumberId"`
	Customer      *struct {
		Number string `json:"number"`
	} `json:"customer,omitempty"`
}

// ToolWebhookRequest is the envelope posted by the voice agent for tool calls.
type ToolWebhookRequest struct {
	Message struct {
		Type         string     `json:"type"`
		ToolCalls    []ToolCall `json:"toolCalls"`
		ToolCallList []ToolCall `json:"toolCallList"`
		Call         *CallInfo  `json:"call,omitempty"`
	} `json:"message"`
	Call *CallInfo `json:"call,omitempty"`
}

// Calls returns the tool calls of the message, whichever list the agent populated.
func (r *ToolWebhookRequest) Calls() []ToolCall {
	if len(r.Message.ToolCalls) > 0 {
		return r.Message.ToolCalls
	}
	return r.Message.ToolCallList
}

// LineID returns the identifier of the line the call came in on.
func (r *ToolWebhookRequest) LineID() string {
	if r.Call != nil && r.Call.PhoneNumberID != "" {
		return r.Call.PhoneNumberID
	}
	if r.Message.Call != nil {
		return r.Message.Call.PhoneNumberID
	}
	return ""
}

// ToolError is a structured failure returned to the voice agent instead of a transport error.
type ToolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Tool error codes.
const (
	ToolErrValidation    = "validation_error"
	ToolErrUnsupported   = "unsupported_operation"
	ToolErrNotConfigured = "restaurant_not_configured"
	ToolErrInternal      = "internal_error"
)

// ToolResult answers one tool call; exactly one of Result or Error is set.
type ToolResult struct {
	ToolCallID string      `json:"toolCallId"`
	Result     interface{} `json:"result,omitempty"`
	Error      *ToolError  `json:"error,omitempty"`
}

// ToolWebhookResponse is the webhook reply.
type ToolWebhookResponse struct {
	Results []ToolResult `json:"results"`
}

// RoutingDecision is where an inbound call is sent.
type RoutingDecision string

const (
	RouteAI    RoutingDecision = "AI"
	RouteStaff RoutingDecision = "STAFF"
)

// CallEvent is the inbound-call notification from the telephony layer.
type CallEvent struct {
	DestinationLine string `json:"destinationLine" binding:"required"`
	OriginLine      string `json:"originLine"`
	CallID          string `json:"callId"`
}

// DirectiveAction is the call-control verb returned to the telephony layer.
type DirectiveAction string

const (
	ActionRouteToAI        DirectiveAction = "say_and_route_ai"
	ActionDialStaff        DirectiveAction = "dial_staff_with_fallback"
	ActionSayNotConfigured DirectiveAction = "say_not_configured"
)

// CallDirective tells the telephony layer what to do with a call.
type CallDirective struct {
	CallID         string          `json:"callId,omitempty"`
	Action         DirectiveAction `json:"action"`
	Decision       RoutingDecision `json:"decision,omitempty"`
	TenantID       string          `json:"restaurantId,omitempty"`
	Say            string          `json:"say,omitempty"`
	AssistantID    string          `json:"assistantId,omitempty"`
	DialNumber     string          `json:"dialNumber,omitempty"`
	TimeoutSeconds int             `json:"timeoutSeconds,omitempty"`
	FallbackURL    string          `json:"fallbackUrl,omitempty"`
}

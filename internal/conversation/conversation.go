// Package conversation holds the chat history sent to the completion endpoint.
package conversation

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Role identifies who authored a message.
type Role int

const (
	// RoleSystem carries the instructions set at session start.
	RoleSystem Role = iota + 1
	// RoleUser is text typed by the user.
	RoleUser
	// RoleAssistant is a reply returned by the endpoint.
	RoleAssistant
)

// String returns the wire token for the role.
func (r Role) String() string {
	switch r {
	case RoleSystem:
		return "system"
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	return r >= RoleSystem && r <= RoleAssistant
}

// ErrInvalidEncoding is returned by Serialize when a message is not valid UTF-8.
var ErrInvalidEncoding = errors.New("content is not valid UTF-8")

// Message is a single entry of the history.
type Message struct {
	Role    Role
	Content string
}

// Conversation is an append-only message log bound to one model.
// It is not safe for concurrent use.
type Conversation struct {
	model    string
	messages []Message
}

// New starts a conversation. A non-empty systemPrompt becomes the first message.
func New(model, systemPrompt string) *Conversation {
	c := &Conversation{model: model}
	if systemPrompt != "" {
		c.Append(RoleSystem, systemPrompt)
	}
	return c
}

// Model returns the model identifier sent with every request.
func (c *Conversation) Model() string {
	return c.model
}

// Append adds a message to the end of the log.
// It panics on an undefined role.
func (c *Conversation) Append(role Role, content string) {
	if !role.Valid() {
		panic(fmt.Sprintf("conversation: append with invalid role %d", int(role)))
	}
	c.messages = append(c.messages, Message{Role: role, Content: content})
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Messages returns a copy of the log in insertion order.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Last returns the most recent message, if any.
func (c *Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Payload is the request body of a chat completion call.
type Payload struct {
	Model    string        `json:"model"`
	Messages []WireMessage `json:"messages"`
}

// WireMessage is a message reduced to its serialized form.
type WireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Serialize encodes the model and the full history as a JSON request body.
func (c *Conversation) Serialize() ([]byte, error) {
	payload := Payload{
		Model:    c.model,
		Messages: make([]WireMessage, 0, len(c.messages)),
	}
	for i, m := range c.messages {
		// encoding/json silently replaces invalid bytes, which would send
		// something other than what was typed.
		if !utf8.ValidString(m.Content) {
			return nil, fmt.Errorf("message %d (%s): %w", i, m.Role, ErrInvalidEncoding)
		}
		payload.Messages = append(payload.Messages, WireMessage{
			Role:    m.Role.String(),
			Content: m.Content,
		})
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return data, nil
}

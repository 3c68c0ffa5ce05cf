package conversation_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/raphaelgruber/termchat/internal/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAddsSystemMessage(t *testing.T) {
	conv := conversation.New("gpt-3.5-turbo", "You are a helpful assistant")

	require.Equal(t, 1, conv.Len())
	assert.Equal(t, "gpt-3.5-turbo", conv.Model())

	first, ok := conv.Last()
	require.True(t, ok)
	assert.Equal(t, conversation.RoleSystem, first.Role)
	assert.Equal(t, "You are a helpful assistant", first.Content)
}

func TestNewWithoutSystemPrompt(t *testing.T) {
	conv := conversation.New("m", "")
	assert.Equal(t, 0, conv.Len())

	_, ok := conv.Last()
	assert.False(t, ok, "empty conversation has no last message")
}

func TestAppendPreservesOrder(t *testing.T) {
	conv := conversation.New("m", "sys")
	conv.Append(conversation.RoleUser, "one")
	conv.Append(conversation.RoleAssistant, "two")
	conv.Append(conversation.RoleUser, "three")

	want := []conversation.Message{
		{Role: conversation.RoleSystem, Content: "sys"},
		{Role: conversation.RoleUser, Content: "one"},
		{Role: conversation.RoleAssistant, Content: "two"},
		{Role: conversation.RoleUser, Content: "three"},
	}
	assert.Equal(t, want, conv.Messages())
}

func TestMessagesReturnsCopy(t *testing.T) {
	conv := conversation.New("m", "sys")
	msgs := conv.Messages()
	msgs[0].Content = "changed"

	first := conv.Messages()[0]
	assert.Equal(t, "sys", first.Content, "callers must not mutate the log")
}

func TestAppendInvalidRolePanics(t *testing.T) {
	conv := conversation.New("m", "")
	assert.Panics(t, func() { conv.Append(conversation.Role(0), "x") })
	assert.Panics(t, func() { conv.Append(conversation.Role(42), "x") })
	assert.Equal(t, 0, conv.Len())
}

func TestRoleString(t *testing.T) {
	tests := []struct {
		role conversation.Role
		want string
	}{
		{conversation.RoleSystem, "system"},
		{conversation.RoleUser, "user"},
		{conversation.RoleAssistant, "assistant"},
		{conversation.Role(9), "Role(9)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.String())
		})
	}
}

// parseRole maps a serialized role token back to its Role.
func parseRole(t *testing.T, s string) conversation.Role {
	t.Helper()
	for _, r := range []conversation.Role{conversation.RoleSystem, conversation.RoleUser, conversation.RoleAssistant} {
		if r.String() == s {
			return r
		}
	}
	t.Fatalf("unknown role %q", s)
	return 0
}

func TestSerializeShape(t *testing.T) {
	conv := conversation.New("gpt-3.5-turbo", "sys")
	conv.Append(conversation.RoleUser, "hi")

	data, err := conv.Serialize()
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"model": "gpt-3.5-turbo",
		"messages": [
			{"role": "system", "content": "sys"},
			{"role": "user", "content": "hi"}
		]
	}`, string(data))
}

func TestSerializeEmptyHistory(t *testing.T) {
	data, err := conversation.New("m", "").Serialize()
	require.NoError(t, err)
	assert.JSONEq(t, `{"model":"m","messages":[]}`, string(data))
}

func TestSerializeRoundTrip(t *testing.T) {
	conv := conversation.New("m", "sys")
	conv.Append(conversation.RoleUser, "quotes \" and \\ backslashes")
	conv.Append(conversation.RoleAssistant, "unicode: héllo wörld 🚀")
	conv.Append(conversation.RoleUser, "multi\nline\ttext")

	data, err := conv.Serialize()
	require.NoError(t, err)

	var parsed conversation.Payload
	require.NoError(t, json.Unmarshal(data, &parsed))

	want := conv.Messages()
	require.Len(t, parsed.Messages, len(want))
	for i, m := range parsed.Messages {
		assert.Equal(t, want[i].Role, parseRole(t, m.Role), "role at %d", i)
		assert.Equal(t, want[i].Content, m.Content, "content at %d", i)
	}
}

func TestSerializeInvalidUTF8(t *testing.T) {
	conv := conversation.New("m", "sys")
	conv.Append(conversation.RoleUser, "bad \xff byte")

	data, err := conv.Serialize()
	assert.Nil(t, data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, conversation.ErrInvalidEncoding))
}

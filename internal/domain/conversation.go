package domain

import "strings"

// Conversation is an ordered, immutable chat history. Every extension returns
// a new Conversation; earlier values stay valid and unchanged.
type Conversation struct {
	messages []Message
}

// Seed builds the canonical three-turn opening used at the start of every
// mode run and after a reset boundary.
func Seed(systemText, userInit, assistantInit string) Conversation {
	return Conversation{}.
		Append(RoleSystem, strings.TrimLeft(systemText, " \t\r\n")).
		Append(RoleUser, userInit).
		Append(RoleAssistant, assistantInit)
}

// Append returns a copy of c with one trailing message.
func (c Conversation) Append(role Role, content string) Conversation {
	next := make([]Message, len(c.messages), len(c.messages)+1)
	copy(next, c.messages)
	next = append(next, Message{Role: role, Content: content})
	return Conversation{messages: next}
}

// Len reports the number of messages.
func (c Conversation) Len() int { return len(c.messages) }

// At returns the i-th message.
func (c Conversation) At(i int) Message { return c.messages[i] }

// Messages returns a copy of the history in order.
func (c Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Last returns the final message, if any.
func (c Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Log is the ordered message history of one session. It is only ever
// appended to or cut back from the tail. A Log is not safe for concurrent
// use; the owning session serializes access.
type Log struct {
	messages []Message
}

// Append adds msg at the end of the log.
func (l *Log) Append(msg Message) {
	l.messages = append(l.messages, msg)
}

// Truncate keeps the first n messages and discards the rest. Values of n
// outside [0, Len] are clamped.
func (l *Log) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n >= len(l.messages) {
		return
	}
	// Zero the tail so dropped content is not retained by the backing array.
	for i := n; i < len(l.messages); i++ {
		l.messages[i] = Message{}
	}
	l.messages = l.messages[:n]
}

// Clear removes every message.
func (l *Log) Clear() {
	l.messages = nil
}

// Len returns the number of messages.
func (l *Log) Len() int {
	return len(l.messages)
}

// IsEmpty returns true if there are no messages.
func (l *Log) IsEmpty() bool {
	return len(l.messages) == 0
}

// At returns the message at index i.
func (l *Log) At(i int) Message {
	return l.messages[i]
}

// Last returns the most recent message and false when the log is empty.
func (l *Log) Last() (Message, bool) {
	if len(l.messages) == 0 {
		return Message{}, false
	}
	return l.messages[len(l.messages)-1], true
}

// LastIndexOf returns the index of the most recent message with the given
// role, or -1.
func (l *Log) LastIndexOf(role Role) int {
	for i := len(l.messages) - 1; i >= 0; i-- {
		if l.messages[i].Role == role {
			return i
		}
	}
	return -1
}

// Messages returns a copy of the log contents.
func (l *Log) Messages() []Message {
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Turns projects the log onto the wire shape, in order.
func (l *Log) Turns() []Turn {
	turns := make([]Turn, 0, len(l.messages)+1)
	for _, msg := range l.messages {
		turns = append(turns, msg.Turn())
	}
	return turns
}

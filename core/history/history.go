// Package history holds the bounded log of recently entered command lines.
package history

import (
	"errors"
	"fmt"

	"github.com/josephlewis42/sish/core/shell"
)

// DefaultCapacity is the number of lines kept by a stock shell.
const DefaultCapacity = 100

// ErrInvalidOffset is returned when an offset doesn't name a visible entry.
var ErrInvalidOffset = errors.New("invalid offset")

// Entry is a visible history line and the offset it is displayed at.
type Entry struct {
	Index int
	Line  string
}

// Buffer is a fixed capacity circular log of command lines. Once full, every
// append discards the oldest line.
//
// The ring has one slot more than its capacity, the extra slot only holds the
// evicted head while an append shifts the ring.
type Buffer struct {
	slots []string
	head  int
	count int
}

// New creates an empty buffer holding at most capacity lines. It panics if
// capacity is less than one.
func New(capacity int) *Buffer {
	if capacity < 1 {
		panic(fmt.Sprintf("history capacity must be positive, got %d", capacity))
	}

	return &Buffer{
		slots: make([]string, capacity+1),
	}
}

// Cap returns the maximum number of visible lines.
func (b *Buffer) Cap() int {
	return len(b.slots) - 1
}

// Len returns the number of visible lines.
func (b *Buffer) Len() int {
	if b.count < b.Cap() {
		return b.count
	}
	return b.Cap()
}

// Total returns the number of lines appended since creation or the last Clear.
func (b *Buffer) Total() int {
	return b.count
}

func (b *Buffer) wrapped() bool {
	return b.count > b.Cap()
}

// Append adds a line, stripping its trailing line terminator.
func (b *Buffer) Append(line string) {
	line = shell.TrimTerminator(line)

	capacity := b.Cap()
	if b.count < capacity {
		b.slots[b.count] = line
		b.count++
		return
	}

	scratch := capacity
	vacated := b.head
	b.slots[scratch] = b.slots[vacated]
	b.head = (b.head + 1) % capacity
	b.slots[vacated] = line
	b.slots[scratch] = ""
	b.count++
}

// physical maps a display offset to its slot.
func (b *Buffer) physical(offset int) int {
	if !b.wrapped() {
		return offset
	}
	return (offset + b.head) % b.Cap()
}

// Resolve returns the line displayed at offset.
func (b *Buffer) Resolve(offset int) (string, error) {
	if offset < 0 || offset > b.Len()-1 {
		return "", fmt.Errorf("%w: %d", ErrInvalidOffset, offset)
	}

	return b.slots[b.physical(offset)], nil
}

// List returns the visible lines from oldest to newest.
func (b *Buffer) List() []Entry {
	out := make([]Entry, 0, b.Len())
	for i := 0; i < b.Len(); i++ {
		out = append(out, Entry{Index: i, Line: b.slots[b.physical(i)]})
	}
	return out
}

// Clear drops every line, the buffer then behaves as if it were new.
func (b *Buffer) Clear() {
	for i := range b.slots {
		b.slots[i] = ""
	}
	b.head = 0
	b.count = 0
}

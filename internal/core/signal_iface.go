package core

// Frame is a raw wire payload (encoded JSON event).
type Frame []byte

// ConnID identifies one live transport connection. Unique for the
// process lifetime, assigned at connect time, never reused.
type ConnID string

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

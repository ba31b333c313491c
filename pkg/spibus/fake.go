package spibus

import (
	"fmt"
	"sync"
	"time"
)

// Fake is an in-memory Conn. Respond builds the reply for each transfer;
// when nil the reply is all zeros.
type Fake struct {
	Respond func(w []byte) []byte
	// Err, when set, fails every transfer.
	Err error

	mu       sync.Mutex
	settings Settings
	writes   [][]byte
	txAt     []time.Time
	closed   bool
}

// NewFake returns a Fake that always replies with reply.
func NewFake(reply ...byte) *Fake {
	return &Fake{Respond: func([]byte) []byte { return reply }}
}

// Configure records the fixed bus settings.
func (f *Fake) Configure() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings = Settings{Speed: Speed, Mode: Mode, Bits: BitsPerWord}
	return nil
}

// Tx records w and fills r from Respond.
func (f *Fake) Tx(w, r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return fmt.Errorf("tx fake: %w: closed", ErrTransactionFailure)
	}
	if f.Err != nil {
		return fmt.Errorf("tx fake: %w: %w", ErrTransactionFailure, f.Err)
	}
	f.writes = append(f.writes, append([]byte(nil), w...))
	f.txAt = append(f.txAt, time.Now())
	for i := range r {
		r[i] = 0
	}
	if f.Respond != nil {
		copy(r, f.Respond(w))
	}
	return nil
}

// Settings returns what Configure applied, or the zero value before it.
func (f *Fake) Settings() Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings
}

// Close marks the bus closed; later transfers fail.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Writes returns a copy of every frame written so far.
func (f *Fake) Writes() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.writes...)
}

// TxTimes returns when each transfer happened.
func (f *Fake) TxTimes() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.txAt...)
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

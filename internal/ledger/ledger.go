// Package ledger accumulates the immutable result records of one run.
//
// The ledger is append-only: once a record is appended it is never mutated
// or removed. Each record hashes over its fields and the previous record's
// hash, forming a chain, and the chain head can be sealed with an HMAC
// under a per-run key so post-hoc edits to an exported results file are
// detectable. Step identity (sentence index, word index) is unique per run
// by construction of the state machine, not enforced here.
package ledger

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/crypto/hkdf"

	"predlab/internal/clock"
)

// Record is one completed prediction opportunity.
type Record struct {
	// Trial identity.
	ParticipantID string
	SentenceIndex int
	WordIndex     int

	// What the participant saw and did.
	SentenceText    string
	DisplayedPrefix string
	Predicted       string
	ActualNext      string

	// Timing. Raw stamps are zero on a timing gap so degraded records
	// stay distinguishable in the export.
	DisplayMs  clock.Millis
	InputMs    clock.Millis
	ResponseMs clock.Millis

	// Data-quality flags.
	TimingGap       bool
	OrderingAnomaly bool

	// Simulated marks records produced by a headless smoke run.
	Simulated bool

	// CreatedAt is wall-clock metadata, never used for response-time
	// arithmetic.
	CreatedAt time.Time

	// Chain linkage, filled in by Append.
	PrevHash [32]byte
	Hash     [32]byte
}

// Ledger is the append-only record store for one run.
type Ledger struct {
	mu      sync.Mutex
	key     []byte
	records []Record
	head    [32]byte
}

// New derives the sealing key from the run seed and participant ID and
// returns an empty ledger.
func New(seed [32]byte, participantID string) (*Ledger, error) {
	r := hkdf.New(sha256.New, seed[:], []byte(participantID), []byte("predlab-ledger-v1"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive ledger key: %w", err)
	}
	return &Ledger{key: key}, nil
}

// Append chains and stores a record, returning the stored copy with its
// hash linkage filled in. O(1); never touches earlier records.
func (l *Ledger) Append(r Record) Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	r.PrevHash = l.head
	r.Hash = computeHash(&r)
	l.records = append(l.records, r)
	l.head = r.Hash
	return r
}

// All returns a snapshot of the records in append order.
func (l *Ledger) All() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Head returns the current chain head hash.
func (l *Ledger) Head() [32]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.head
}

// Seal returns an HMAC over the chain head under the run key. Exported
// alongside the records so the results file is tamper-evident.
func (l *Ledger) Seal() [32]byte {
	l.mu.Lock()
	defer l.mu.Unlock()

	mac := hmac.New(sha256.New, l.key)
	mac.Write(l.head[:])
	var out [32]byte
	copy(out[:], mac.Sum(nil))
	return out
}

// VerifyChain recomputes every link and reports the first mismatch.
func (l *Ledger) VerifyChain() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var prev [32]byte
	for i := range l.records {
		r := l.records[i]
		if r.PrevHash != prev {
			return fmt.Errorf("record %d: broken chain linkage", i)
		}
		if computeHash(&r) != r.Hash {
			return fmt.Errorf("record %d: hash mismatch", i)
		}
		prev = r.Hash
	}
	return nil
}

// computeHash computes the record's binding hash.
func computeHash(r *Record) [32]byte {
	h := sha256.New()
	h.Write([]byte("predlab-result-v1"))

	var buf [8]byte
	writeStr := func(s string) {
		binary.BigEndian.PutUint64(buf[:], uint64(len(s)))
		h.Write(buf[:])
		h.Write([]byte(s))
	}
	writeInt := func(v int64) {
		binary.BigEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	writeMillis := func(m clock.Millis) {
		binary.BigEndian.PutUint64(buf[:], uint64(m*1000)) // microsecond precision
		h.Write(buf[:])
	}
	writeBool := func(b bool) {
		if b {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	}

	writeStr(r.ParticipantID)
	writeInt(int64(r.SentenceIndex))
	writeInt(int64(r.WordIndex))
	writeStr(r.SentenceText)
	writeStr(r.DisplayedPrefix)
	writeStr(r.Predicted)
	writeStr(r.ActualNext)
	writeMillis(r.DisplayMs)
	writeMillis(r.InputMs)
	writeMillis(r.ResponseMs)
	writeBool(r.TimingGap)
	writeBool(r.OrderingAnomaly)
	writeBool(r.Simulated)
	writeInt(r.CreatedAt.UnixNano())
	h.Write(r.PrevHash[:])

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

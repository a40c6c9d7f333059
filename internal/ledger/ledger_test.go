package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(i int, created time.Time) Record {
	return Record{
		ParticipantID:   "P001-20260101T120000-deadbeef",
		SentenceIndex:   i / 2,
		WordIndex:       i % 2,
		SentenceText:    "나는 바나나가 좋다.",
		DisplayedPrefix: "나는",
		Predicted:       "바나나가",
		ActualNext:      "바나나가",
		DisplayMs:       1000.5,
		InputMs:         1250.75,
		ResponseMs:      250.25,
		CreatedAt:       created,
	}
}

func newTestLedger(t *testing.T, seed byte) *Ledger {
	t.Helper()
	var s [32]byte
	for i := range s {
		s[i] = seed
	}
	l, err := New(s, "P001")
	require.NoError(t, err)
	return l
}

func TestAppendChains(t *testing.T) {
	l := newTestLedger(t, 1)
	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	var prev [32]byte
	for i := 0; i < 4; i++ {
		rec := l.Append(testRecord(i, created))
		assert.Equal(t, prev, rec.PrevHash, "record %d links to previous head", i)
		assert.NotEqual(t, [32]byte{}, rec.Hash)
		prev = rec.Hash
	}

	assert.Equal(t, 4, l.Len())
	assert.Equal(t, prev, l.Head())
	require.NoError(t, l.VerifyChain())
}

func TestAllReturnsSnapshot(t *testing.T) {
	l := newTestLedger(t, 1)
	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.Append(testRecord(0, created))
	l.Append(testRecord(1, created))

	records := l.All()
	require.Len(t, records, 2)

	// Mutating the snapshot must not reach the ledger.
	records[0].Predicted = "변조"
	assert.NoError(t, l.VerifyChain())
	assert.Equal(t, "바나나가", l.All()[0].Predicted)
}

func TestHashCoversFields(t *testing.T) {
	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	a := testRecord(0, created)
	b := testRecord(0, created)
	b.Predicted = "다른어절"

	la := newTestLedger(t, 1)
	lb := newTestLedger(t, 1)
	ra := la.Append(a)
	rb := lb.Append(b)
	assert.NotEqual(t, ra.Hash, rb.Hash, "prediction text must be hash-bound")

	// Quality flags are hash-bound too: clearing an anomaly flag after the
	// fact must be detectable.
	c := testRecord(0, created)
	c.OrderingAnomaly = true
	lc := newTestLedger(t, 1)
	rc := lc.Append(c)
	assert.NotEqual(t, ra.Hash, rc.Hash)
}

func TestSealKeyedBySeed(t *testing.T) {
	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	l1 := newTestLedger(t, 1)
	l2 := newTestLedger(t, 1)
	l3 := newTestLedger(t, 2)
	for i := 0; i < 3; i++ {
		l1.Append(testRecord(i, created))
		l2.Append(testRecord(i, created))
		l3.Append(testRecord(i, created))
	}

	// Same records, same seed: identical head and seal.
	assert.Equal(t, l1.Head(), l2.Head())
	assert.Equal(t, l1.Seal(), l2.Seal())

	// Same records, different seed: same head, different seal.
	assert.Equal(t, l1.Head(), l3.Head())
	assert.NotEqual(t, l1.Seal(), l3.Seal())
}

func TestEmptyLedger(t *testing.T) {
	l := newTestLedger(t, 1)

	assert.Equal(t, 0, l.Len())
	assert.Equal(t, [32]byte{}, l.Head())
	assert.NoError(t, l.VerifyChain())
	assert.Empty(t, l.All())
}

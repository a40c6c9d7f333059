package timing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predlab/internal/clock"
)

func TestNormalPair(t *testing.T) {
	clk := clock.NewManual(1000)
	c := New(clk, nil)

	c.Arm()
	require.True(t, c.RecordDisplayCommitted())
	clk.Advance(250)
	require.True(t, c.RecordInputStarted())

	out := c.Reconcile()
	assert.Equal(t, 250.0, out.ResponseMs)
	assert.Equal(t, 1000.0, out.DisplayMs)
	assert.Equal(t, 1250.0, out.InputMs)
	assert.False(t, out.Gap)
	assert.False(t, out.Anomaly)
}

func TestStampsWriteAtMostOnce(t *testing.T) {
	clk := clock.NewManual(1000)
	c := New(clk, nil)

	c.Arm()
	require.True(t, c.RecordDisplayCommitted())
	clk.Advance(100)
	// Repeated display attempts are no-ops; the first write stands.
	require.False(t, c.RecordDisplayCommitted())

	// Focus, first keystroke, and the backup timer all funnel into
	// RecordInputStarted; only the first writes.
	require.True(t, c.RecordInputStarted())
	clk.Advance(500)
	require.False(t, c.RecordInputStarted())

	out := c.Reconcile()
	assert.Equal(t, 100.0, out.ResponseMs)
}

func TestUnarmedStampsRejected(t *testing.T) {
	clk := clock.NewManual(0)
	c := New(clk, nil)

	assert.False(t, c.RecordDisplayCommitted())
	assert.False(t, c.RecordInputStarted())
}

func TestTimingGap(t *testing.T) {
	clk := clock.NewManual(1000)
	c := New(clk, nil)

	// Display stamped, input never observed.
	c.Arm()
	require.True(t, c.RecordDisplayCommitted())
	out := c.Reconcile()
	assert.True(t, out.Gap)
	assert.False(t, out.Anomaly)
	assert.Equal(t, 0.0, out.ResponseMs)
	assert.Equal(t, 1000.0, out.DisplayMs)
	assert.Equal(t, 0.0, out.InputMs)

	// Input stamped, display never committed.
	c.Arm()
	require.True(t, c.RecordInputStarted())
	out = c.Reconcile()
	assert.True(t, out.Gap)
	assert.Equal(t, 0.0, out.ResponseMs)
	assert.Equal(t, 0.0, out.DisplayMs)

	// Neither stamped.
	c.Arm()
	out = c.Reconcile()
	assert.True(t, out.Gap)
}

func TestOrderingAnomalyClampsToZero(t *testing.T) {
	clk := clock.NewManual(1000)
	c := New(clk, nil)

	// Input lands before the display commit: a protocol violation
	// upstream. The record survives, flagged, with the negative interval
	// clamped rather than exported.
	c.Arm()
	require.True(t, c.RecordInputStarted())
	clk.Advance(100)
	require.True(t, c.RecordDisplayCommitted())

	out := c.Reconcile()
	assert.True(t, out.Anomaly)
	assert.False(t, out.Gap)
	assert.Equal(t, 0.0, out.ResponseMs)
	assert.Equal(t, 1100.0, out.DisplayMs)
	assert.Equal(t, 1000.0, out.InputMs)
}

func TestReconcileDisarms(t *testing.T) {
	clk := clock.NewManual(1000)
	c := New(clk, nil)

	c.Arm()
	c.RecordDisplayCommitted()
	c.RecordInputStarted()
	c.Reconcile()

	// Late callbacks for the closed opportunity must not write.
	assert.False(t, c.RecordDisplayCommitted())
	assert.False(t, c.RecordInputStarted())
}

func TestArmResetsSample(t *testing.T) {
	clk := clock.NewManual(1000)
	c := New(clk, nil)

	seq1 := c.Arm()
	c.RecordDisplayCommitted()
	c.RecordInputStarted()
	c.Reconcile()

	clk.Advance(5000)
	seq2 := c.Arm()
	require.Greater(t, seq2, seq1)

	require.True(t, c.RecordDisplayCommitted())
	clk.Advance(42)
	require.True(t, c.RecordInputStarted())

	out := c.Reconcile()
	assert.Equal(t, 42.0, out.ResponseMs)
	assert.Equal(t, 6000.0, out.DisplayMs)
}

func TestSubMillisecondResolution(t *testing.T) {
	clk := clock.NewManual(0)
	c := New(clk, nil)

	c.Arm()
	c.RecordDisplayCommitted()
	clk.Advance(0.125)
	c.RecordInputStarted()

	out := c.Reconcile()
	assert.Equal(t, 0.125, out.ResponseMs)
}

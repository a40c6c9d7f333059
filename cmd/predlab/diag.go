package main

import (
	"fmt"
	"time"

	"predlab/internal/clock"
)

// cmdDiag reports clock behavior on this machine. Reaction-time work is
// invalidated by a coarse or non-monotone clock, so this is the first thing
// to check on a new deployment.
func cmdDiag() {
	clk := clock.NewMonotonic()

	const samples = 100000
	prev := clk.Now()
	minDelta := -1.0
	decreases := 0
	for i := 0; i < samples; i++ {
		now := clk.Now()
		d := now - prev
		if d < 0 {
			decreases++
		}
		if d > 0 && (minDelta < 0 || d < minDelta) {
			minDelta = d
		}
		prev = now
	}

	fmt.Printf("clock samples:        %d\n", samples)
	fmt.Printf("monotonic decreases:  %d\n", decreases)
	if minDelta > 0 {
		fmt.Printf("finest observed tick: %.6f ms\n", minDelta)
	}

	// Timer wakeup skew: how late a 10ms timer actually fires. Large skew
	// means the backup input trigger fires later than configured, which
	// widens (never narrows) the window in which real input wins.
	start := clk.Now()
	done := make(chan struct{})
	time.AfterFunc(10*time.Millisecond, func() { close(done) })
	<-done
	fmt.Printf("10ms timer fired at:  %.3f ms\n", clk.Now()-start)

	if decreases > 0 {
		fmt.Println("\nWARNING: clock decreased; response times on this machine are unreliable")
	} else {
		fmt.Println("\nclock: ok")
	}
}

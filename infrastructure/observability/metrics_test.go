package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// Counter vars are package-global, so each test reads the value before
// tracking and asserts on the delta.

func TestTrackLedgerEntry(t *testing.T) {
	before := testutil.ToFloat64(ledgerEntriesRecorded.WithLabelValues("spend"))

	TrackLedgerEntry("spend")
	TrackLedgerEntry("spend")

	assert.Equal(t, before+2, testutil.ToFloat64(ledgerEntriesRecorded.WithLabelValues("spend")))
}

func TestTrackTicketsPurchased(t *testing.T) {
	before := testutil.ToFloat64(ticketsPurchased)

	TrackTicketsPurchased(5)

	assert.Equal(t, before+5, testutil.ToFloat64(ticketsPurchased))
}

func TestTrackPurchaseRejected(t *testing.T) {
	before := testutil.ToFloat64(purchasesRejected.WithLabelValues("insufficient_funds"))

	TrackPurchaseRejected("insufficient_funds")

	assert.Equal(t, before+1, testutil.ToFloat64(purchasesRejected.WithLabelValues("insufficient_funds")))
}

func TestTrackDrawExecution(t *testing.T) {
	before := testutil.ToFloat64(drawExecutions.WithLabelValues("completed"))

	TrackDrawExecution("completed", 40*time.Millisecond)
	TrackDrawExecution("failed", 0)

	assert.Equal(t, before+1, testutil.ToFloat64(drawExecutions.WithLabelValues("completed")))
}

package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	ledgerEntriesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_entries_recorded_total",
			Help: "Total ledger entries appended, by entry kind",
		},
		[]string{"kind"},
	)

	ticketsPurchased = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_purchased_total",
			Help: "Total tickets sold across all drawings",
		},
	)

	purchasesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_purchases_rejected_total",
			Help: "Ticket purchases rejected before any ledger mutation",
		},
		[]string{"reason"},
	)

	drawingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drawing_transitions_total",
			Help: "Drawing lifecycle transitions applied",
		},
		[]string{"from", "to"},
	)

	drawExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "draw_executions_total",
			Help: "Draw execution attempts by outcome",
		},
		[]string{"outcome"},
	)

	drawExecutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "draw_execution_duration_seconds",
			Help:    "Time spent selecting winners for a single drawing",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	forfeitures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fulfillment_forfeitures_total",
			Help: "Prizes forfeited, by cause",
		},
		[]string{"cause"},
	)

	notificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "winner_notifications_dispatched_total",
			Help: "Winner notification dispatch attempts by status",
		},
		[]string{"status"},
	)
)

// TrackLedgerEntry records a ledger append
func TrackLedgerEntry(kind string) {
	ledgerEntriesRecorded.WithLabelValues(kind).Inc()
}

// TrackTicketsPurchased records a completed ticket purchase
func TrackTicketsPurchased(count int) {
	ticketsPurchased.Add(float64(count))
}

// TrackPurchaseRejected records a rejected purchase attempt
func TrackPurchaseRejected(reason string) {
	purchasesRejected.WithLabelValues(reason).Inc()
}

// TrackDrawingTransition records a lifecycle transition
func TrackDrawingTransition(from, to string) {
	drawingTransitions.WithLabelValues(from, to).Inc()
}

// TrackDrawExecution records a draw execution attempt and its duration
func TrackDrawExecution(outcome string, duration time.Duration) {
	drawExecutions.WithLabelValues(outcome).Inc()
	if outcome == "completed" {
		drawExecutionDuration.Observe(duration.Seconds())
	}
}

// TrackForfeiture records a forfeited fulfillment
func TrackForfeiture(cause string) {
	forfeitures.WithLabelValues(cause).Inc()
}

// TrackNotificationDispatch records a winner notification dispatch attempt
func TrackNotificationDispatch(status string) {
	notificationsDispatched.WithLabelValues(status).Inc()
}

// Serve exposes the Prometheus metrics endpoint until ctx is cancelled
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("Metrics endpoint listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

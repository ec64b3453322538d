package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bentansusanto/travel-api/pkg/telemetry"
)

var (
	// Booking counters
	BookingItemsAdded     *telemetry.Counter
	BookingStatusChanges  *telemetry.Counter
	BookingMergeConflicts *telemetry.Counter

	// Payment counters
	PaymentsCreated   *telemetry.Counter
	PaymentsSucceeded *telemetry.Counter
	PaymentsFailed    *telemetry.Counter
	PaymentsCancelled *telemetry.Counter

	// Webhook counters
	WebhooksReceived *telemetry.Counter
	WebhookOutcomes  *telemetry.Counter

	// Side effects
	SalesRecorded       *telemetry.Counter
	NotificationsSent   *telemetry.Counter
	NotificationsFailed *telemetry.Counter
	BestEffortFailures  *telemetry.Counter
	ExchangeLookups     *telemetry.Counter

	// Histograms
	PaymentAmountUSD *telemetry.Histogram
	CaptureDuration  *telemetry.Histogram

	// Gauges
	PendingPayments *telemetry.UpDownCounter

	initOnce sync.Once
	initErr  error
)

// Init initializes all domain metrics
func Init() error {
	initOnce.Do(func() {
		initErr = initMetrics()
	})
	return initErr
}

func counter(name, description string, dst **telemetry.Counter) func() error {
	return func() error {
		c, err := telemetry.NewCounter(telemetry.MetricOpts{Name: name, Description: description, Unit: "1"})
		*dst = c
		return err
	}
}

func initMetrics() error {
	steps := []func() error{
		counter("booking_items_added_total", "Total number of destinations added to bookings", &BookingItemsAdded),
		counter("booking_status_changes_total", "Total number of booking status transitions", &BookingStatusChanges),
		counter("booking_merge_conflicts_total", "Concurrent booking creations resolved by merging", &BookingMergeConflicts),
		counter("payment_created_total", "Total number of payments created", &PaymentsCreated),
		counter("payment_succeeded_total", "Total number of payments captured", &PaymentsSucceeded),
		counter("payment_failed_total", "Total number of failed payments", &PaymentsFailed),
		counter("payment_cancelled_total", "Total number of cancelled payments", &PaymentsCancelled),
		counter("payment_webhooks_received_total", "Total number of processor webhooks received", &WebhooksReceived),
		counter("payment_webhook_outcomes_total", "Processor webhooks by outcome", &WebhookOutcomes),
		counter("sales_recorded_total", "Total number of sales written to the ledger", &SalesRecorded),
		counter("notifications_sent_total", "Total number of emails delivered", &NotificationsSent),
		counter("notifications_failed_total", "Total number of emails that exhausted retries", &NotificationsFailed),
		counter("best_effort_failures_total", "Side effects that failed without failing the request", &BestEffortFailures),
		counter("exchange_lookups_total", "Exchange rate lookups by source", &ExchangeLookups),
		func() error {
			var err error
			PaymentAmountUSD, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
				Name:        "payment_amount_usd",
				Description: "Payment amounts in USD",
				Unit:        "USD",
			}, []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000})
			return err
		},
		func() error {
			var err error
			CaptureDuration, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
				Name:        "payment_capture_duration_seconds",
				Description: "Processor capture latency in seconds",
				Unit:        "s",
			}, []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30})
			return err
		},
		func() error {
			var err error
			PendingPayments, err = telemetry.NewUpDownCounter(telemetry.MetricOpts{
				Name:        "payment_pending",
				Description: "Current number of pending payments",
				Unit:        "1",
			})
			return err
		},
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// RecordBookingItemAdded records a destination added to a booking
func RecordBookingItemAdded(ctx context.Context, countryID string, merged bool) {
	BookingItemsAdded.Inc(ctx,
		attribute.String("country_id", countryID),
		attribute.Bool("merged", merged),
	)
}

// RecordBookingStatusChanged records a booking transition
func RecordBookingStatusChanged(ctx context.Context, from, to string) {
	BookingStatusChanges.Inc(ctx,
		attribute.String("from", from),
		attribute.String("to", to),
	)
}

// RecordBookingMergeConflict records a lost creation race
func RecordBookingMergeConflict(ctx context.Context) {
	BookingMergeConflicts.Inc(ctx)
}

// RecordPaymentCreated records a payment creation metric
func RecordPaymentCreated(ctx context.Context, method, currency string, amountUSD float64) {
	PaymentsCreated.Inc(ctx,
		attribute.String("method", method),
		attribute.String("currency", currency),
	)
	PaymentAmountUSD.Record(ctx, amountUSD, attribute.String("method", method))
	PendingPayments.Inc(ctx)
}

// RecordPaymentSucceeded records a captured payment
func RecordPaymentSucceeded(ctx context.Context, method, via string) {
	PaymentsSucceeded.Inc(ctx,
		attribute.String("method", method),
		attribute.String("via", via),
	)
	PendingPayments.Dec(ctx)
}

// RecordPaymentFailed records a payment failure metric
func RecordPaymentFailed(ctx context.Context, method, reason string) {
	PaymentsFailed.Inc(ctx,
		attribute.String("method", method),
		attribute.String("reason", reason),
	)
	PendingPayments.Dec(ctx)
}

// RecordPaymentCancelled records a payment cancellation metric
func RecordPaymentCancelled(ctx context.Context, method string) {
	PaymentsCancelled.Inc(ctx, attribute.String("method", method))
	PendingPayments.Dec(ctx)
}

// RecordCaptureDuration records processor capture latency
func RecordCaptureDuration(ctx context.Context, processor string, seconds float64) {
	CaptureDuration.Record(ctx, seconds, attribute.String("processor", processor))
}

// RecordWebhook records a webhook and how it ended
func RecordWebhook(ctx context.Context, method, outcome string) {
	WebhooksReceived.Inc(ctx, attribute.String("method", method))
	WebhookOutcomes.Inc(ctx,
		attribute.String("method", method),
		attribute.String("outcome", outcome),
	)
}

// RecordSaleRecorded records a ledger insert
func RecordSaleRecorded(ctx context.Context, currency string) {
	SalesRecorded.Inc(ctx, attribute.String("currency", currency))
}

// RecordNotification records a delivery attempt result
func RecordNotification(ctx context.Context, kind string, err error) {
	if err != nil {
		NotificationsFailed.Inc(ctx, attribute.String("kind", kind))
		return
	}
	NotificationsSent.Inc(ctx, attribute.String("kind", kind))
}

// RecordBestEffortFailure records a swallowed side-effect failure
func RecordBestEffortFailure(ctx context.Context, name string, panicked bool) {
	BestEffortFailures.Inc(ctx,
		attribute.String("name", name),
		attribute.Bool("panic", panicked),
	)
}

// RecordExchangeLookup records where a rate came from
func RecordExchangeLookup(ctx context.Context, currency, source string) {
	ExchangeLookups.Inc(ctx,
		attribute.String("currency", currency),
		attribute.String("source", source),
	)
}

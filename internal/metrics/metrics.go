package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bodefavour/web3event/pkg/telemetry"
)

// Metrics holds the service's instruments.
type Metrics struct {
	PurchasesTotal      *telemetry.Counter
	PurchaseRejections  *telemetry.Counter
	TicketsSold         *telemetry.Counter
	CheckinsTotal       *telemetry.Counter
	CheckinRejections   *telemetry.Counter
	PurchaseDuration    *telemetry.Histogram
	EventViewsRecorded  *telemetry.Counter
	PendingTxInFlight   *telemetry.UpDownCounter
	ChainVerifications  *telemetry.Counter
	NotificationsPushed *telemetry.Counter
}

// New creates all instruments.
func New() *Metrics {
	return &Metrics{
		PurchasesTotal: telemetry.NewCounter(telemetry.MetricOpts{
			Name:        "tickets_purchases_total",
			Description: "Successful ticket purchases",
			Unit:        "{purchase}",
		}),
		PurchaseRejections: telemetry.NewCounter(telemetry.MetricOpts{
			Name:        "tickets_purchase_rejections_total",
			Description: "Rejected ticket purchases by reason",
			Unit:        "{rejection}",
		}),
		TicketsSold: telemetry.NewCounter(telemetry.MetricOpts{
			Name:        "tickets_sold_total",
			Description: "Individual tickets sold",
			Unit:        "{ticket}",
		}),
		CheckinsTotal: telemetry.NewCounter(telemetry.MetricOpts{
			Name:        "tickets_checkins_total",
			Description: "Successful gate check-ins",
			Unit:        "{checkin}",
		}),
		CheckinRejections: telemetry.NewCounter(telemetry.MetricOpts{
			Name:        "tickets_checkin_rejections_total",
			Description: "Rejected gate check-ins by reason",
			Unit:        "{rejection}",
		}),
		PurchaseDuration: telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
			Name:        "tickets_purchase_duration_seconds",
			Description: "End to end purchase latency",
			Unit:        "s",
		}, []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}),
		EventViewsRecorded: telemetry.NewCounter(telemetry.MetricOpts{
			Name:        "events_views_recorded_total",
			Description: "Event detail views buffered for aggregation",
			Unit:        "{view}",
		}),
		PendingTxInFlight: telemetry.NewUpDownCounter(telemetry.MetricOpts{
			Name:        "transactions_pending_in_flight",
			Description: "Transactions currently being verified on chain",
			Unit:        "{transaction}",
		}),
		ChainVerifications: telemetry.NewCounter(telemetry.MetricOpts{
			Name:        "transactions_chain_verifications_total",
			Description: "Chain verification outcomes by status",
			Unit:        "{verification}",
		}),
		NotificationsPushed: telemetry.NewCounter(telemetry.MetricOpts{
			Name:        "notifications_pushed_total",
			Description: "Notifications created by the fan-out consumer",
			Unit:        "{notification}",
		}),
	}
}

// Reason tags a rejection counter increment.
func Reason(r string) attribute.KeyValue {
	return attribute.String("reason", r)
}

// Status tags an outcome counter increment.
func Status(s string) attribute.KeyValue {
	return attribute.String("status", s)
}

// RecordPurchase bumps the purchase counters in one call.
func (m *Metrics) RecordPurchase(ctx context.Context, quantity int) {
	m.PurchasesTotal.Inc(ctx)
	m.TicketsSold.Add(ctx, int64(quantity))
}

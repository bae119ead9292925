package metrics

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	invoicesCreated   metric.Int64Counter
	invoicesIssued    metric.Int64Counter
	invoicesCancelled metric.Int64Counter
	paymentsRecorded  metric.Int64Counter
	numberConflicts   metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "mantodeus-manager"
	}
	meter := provider.Meter(name)

	invoicesCreated, err := meter.Int64Counter("manager_invoices_created_total")
	if err != nil {
		return nil, err
	}
	invoicesIssued, err := meter.Int64Counter("manager_invoices_issued_total")
	if err != nil {
		return nil, err
	}
	invoicesCancelled, err := meter.Int64Counter("manager_invoices_cancelled_total")
	if err != nil {
		return nil, err
	}
	paymentsRecorded, err := meter.Int64Counter("manager_payments_recorded_total")
	if err != nil {
		return nil, err
	}
	numberConflicts, err := meter.Int64Counter("manager_invoice_number_conflicts_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		invoicesCreated:   invoicesCreated,
		invoicesIssued:    invoicesIssued,
		invoicesCancelled: invoicesCancelled,
		paymentsRecorded:  paymentsRecorded,
		numberConflicts:   numberConflicts,
	}, nil
}

// RecordInvoiceCreated increments invoice creations.
func (m *Metrics) RecordInvoiceCreated(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.invoicesCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// RecordInvoiceIssued increments issued invoices.
func (m *Metrics) RecordInvoiceIssued(ctx context.Context) {
	if m == nil {
		return
	}
	m.invoicesIssued.Add(ctx, 1)
}

// RecordInvoiceCancelled increments cancellation invoices.
func (m *Metrics) RecordInvoiceCancelled(ctx context.Context) {
	if m == nil {
		return
	}
	m.invoicesCancelled.Add(ctx, 1)
}

// RecordPayment increments recorded payments.
func (m *Metrics) RecordPayment(ctx context.Context) {
	if m == nil {
		return
	}
	m.paymentsRecorded.Add(ctx, 1)
}

// RecordNumberConflict increments allocation races lost at insert time.
func (m *Metrics) RecordNumberConflict(ctx context.Context) {
	if m == nil {
		return
	}
	m.numberConflicts.Add(ctx, 1)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	ctx := context.Background()
	switch protocol {
	case "http", "http/protobuf":
		return otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	default:
		return otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	}
}

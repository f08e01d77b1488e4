package metrics

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	api "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const meterName = "post-promoter"

// Config selects the metric exporters.
type Config struct {
	Account          string
	EnablePrometheus bool
	ListenAddr       string
	EnableOTLP       bool
	OTLPEndpoint     string
	OTLPInsecure     bool
}

// gauge values observed by the registered callback
type gaugeValues struct {
	votingPower int64
	poolSize    int64
	poolTotal   float64
	lastTxID    int64
}

var (
	metricsMutex sync.RWMutex
	meter        api.Meter
	current      gaugeValues
	callback     api.Registration
	provider     *sdkmetric.MeterProvider
)

func init() {
	// Until Init runs every instrument is a no-op.
	if err := setup(noop.NewMeterProvider()); err != nil {
		panic(err)
	}
}

// Init builds the meter provider with the configured exporters, recreates the
// instruments on it and starts the Prometheus endpoint if enabled.
func Init(ctx context.Context, cfg Config) error {
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(meterName),
		attribute.String("account", cfg.Account),
	)
	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if cfg.EnablePrometheus {
		promExporter, err := prometheus.New(prometheus.WithoutScopeInfo())
		if err != nil {
			return fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(promExporter))
	}

	if cfg.EnableOTLP {
		options := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(sanitizeEndpoint(cfg.OTLPEndpoint)),
		}
		if cfg.OTLPInsecure {
			options = append(options, otlpmetrichttp.WithInsecure())
		}
		otlpExporter, err := otlpmetrichttp.New(ctx, options...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(otlpExporter, sdkmetric.WithInterval(15*time.Second)),
		))
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)
	if err := setup(mp); err != nil {
		return err
	}
	metricsMutex.Lock()
	provider = mp
	metricsMutex.Unlock()

	if cfg.EnablePrometheus {
		if err := StartServer(ctx, cfg.ListenAddr); err != nil {
			return fmt.Errorf("failed to start Prometheus server: %w", err)
		}
	}
	return nil
}

// Shutdown flushes and stops the meter provider created by Init.
func Shutdown(ctx context.Context) error {
	metricsMutex.RLock()
	mp := provider
	metricsMutex.RUnlock()
	if mp == nil {
		return nil
	}
	return mp.Shutdown(ctx)
}

// setup creates every instrument on mp and registers the gauge callback.
func setup(mp api.MeterProvider) error {
	m := mp.Meter(meterName, api.WithInstrumentationVersion("0.1.0"))
	if err := createInstruments(m); err != nil {
		return fmt.Errorf("failed to initialize instruments: %w", err)
	}

	reg, err := m.RegisterCallback(observe,
		VotingPowerGauge, PoolSizeGauge, PoolTotalGauge, LastTransactionGauge)
	if err != nil {
		return fmt.Errorf("failed to register callbacks: %w", err)
	}

	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	if callback != nil {
		_ = callback.Unregister()
	}
	meter = m
	callback = reg
	return nil
}

func observe(_ context.Context, o api.Observer) error {
	metricsMutex.RLock()
	defer metricsMutex.RUnlock()
	o.ObserveInt64(VotingPowerGauge, current.votingPower)
	o.ObserveInt64(PoolSizeGauge, current.poolSize)
	o.ObserveFloat64(PoolTotalGauge, current.poolTotal)
	o.ObserveInt64(LastTransactionGauge, current.lastTxID)
	return nil
}

func sanitizeEndpoint(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	return strings.TrimPrefix(endpoint, "http://")
}

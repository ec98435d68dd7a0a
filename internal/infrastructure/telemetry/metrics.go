package telemetry

import (
	"context"
	"fmt"

	"github.com/mrops-br/products-contract-api/internal/infrastructure/config"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// initMeterProvider initializes the meter provider with an OTLP push reader
// and a Prometheus pull reader registered on registerer
func initMeterProvider(ctx context.Context, cfg *config.OTLPConfig, res *resource.Resource, registerer prometheus.Registerer) (*metric.MeterProvider, error) {
	conn, err := grpc.NewClient(cfg.Endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	exporter, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	promReader, err := newPrometheusReader(registerer)
	if err != nil {
		return nil, err
	}

	mp := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter)),
		metric.WithReader(promReader),
		metric.WithResource(res),
		metric.WithView(durationViews()...),
	)

	return mp, nil
}

func newPrometheusReader(registerer prometheus.Registerer) (metric.Reader, error) {
	reader, err := promexporter.New(promexporter.WithRegisterer(registerer))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	return reader, nil
}

// Bucket boundaries for http.server.request.duration.ms
var durationBucketsMs = []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500}

func durationViews() []metric.View {
	return []metric.View{
		metric.NewView(
			metric.Instrument{Name: "http.server.request.duration.ms"},
			metric.Stream{Aggregation: metric.AggregationExplicitBucketHistogram{Boundaries: durationBucketsMs}},
		),
	}
}

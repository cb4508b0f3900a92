package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fazamuttaqien/credit-engine/config"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// OpenTelemetry bundles the logger and the providers every layer pulls its
// meter and tracer from.
type OpenTelemetry struct {
	Log            *zap.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Shutdown       func(context.Context) error
}

// Meter returns a named meter for a component.
func (o *OpenTelemetry) Meter(name string) metric.Meter {
	return o.MeterProvider.Meter(name)
}

// Tracer returns a named tracer for a component.
func (o *OpenTelemetry) Tracer(name string) trace.Tracer {
	return o.TracerProvider.Tracer(name)
}

// New wires traces, metrics and logs to the OTLP collector over a single
// gRPC connection and installs the results as globals.
func New(ctx context.Context, cfg *config.Config) (*OpenTelemetry, error) {
	res, err := NewResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTel resource: %w", err)
	}

	conn, err := NewOTLPClient(cfg.OTEL_EXPORTER_OTLP_ENDPOINT)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP client: %w", err)
	}

	tracerProvider, err := NewTracerProvider(ctx, conn, res)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tracer provider: %w", err)
	}

	loggerProvider, err := NewLoggerProvider(ctx, conn, res)
	if err != nil {
		conn.Close()
		tracerProvider.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create logger provider: %w", err)
	}

	meterProvider, err := NewMeterProvider(ctx, conn, res, cfg.METRIC_INTERVAL)
	if err != nil {
		conn.Close()
		tracerProvider.Shutdown(context.Background())
		loggerProvider.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create meter provider: %w", err)
	}

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log := NewZapLogger(cfg, otelzap.NewCore(cfg.SERVICE_NAME, otelzap.WithLoggerProvider(loggerProvider)))
	zap.ReplaceGlobals(log)

	if cfg.RUNTIME_METRICS {
		if err := runtime.Start(
			runtime.WithMeterProvider(meterProvider),
			runtime.WithMinimumReadMemStatsInterval(time.Second),
		); err != nil {
			log.Warn("Failed to start runtime metrics collector", zap.Error(err))
		}
	}

	shutdown := func(ctx context.Context) error {
		log.Info("Shutting down telemetry components...")

		// Providers first, then the connection they export over.
		errs := []error{
			syncLogger(log),
			meterProvider.Shutdown(ctx),
			loggerProvider.Shutdown(ctx),
			tracerProvider.Shutdown(ctx),
			conn.Close(),
		}
		return errors.Join(errs...)
	}

	log.Info("Telemetry initialized", zap.String("otel_endpoint", cfg.OTEL_EXPORTER_OTLP_ENDPOINT))

	return &OpenTelemetry{
		Log:            log,
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
		Shutdown:       shutdown,
	}, nil
}

// NewLocal keeps the SDK providers in-process without exporters. It is used
// when no collector endpoint is configured.
func NewLocal(cfg *config.Config) *OpenTelemetry {
	tracerProvider := sdktrace.NewTracerProvider()
	meterProvider := sdkmetric.NewMeterProvider()
	log := NewZapLogger(cfg)
	zap.ReplaceGlobals(log)

	return &OpenTelemetry{
		Log:            log,
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
		Shutdown: func(ctx context.Context) error {
			return errors.Join(
				syncLogger(log),
				meterProvider.Shutdown(ctx),
				tracerProvider.Shutdown(ctx),
			)
		},
	}
}

func NewResource(ctx context.Context, cfg *config.Config) (*sdkresource.Resource, error) {
	hostName, _ := os.Hostname()

	return sdkresource.New(
		ctx,
		sdkresource.WithProcess(),
		sdkresource.WithOS(),
		sdkresource.WithHost(),
		sdkresource.WithFromEnv(),
		sdkresource.WithAttributes(
			semconv.ServiceName(cfg.SERVICE_NAME),
			semconv.ServiceVersion(cfg.SERVICE_VERSION),
			semconv.DeploymentEnvironment(cfg.ENVIRONMENT),
			semconv.ServiceInstanceID(fmt.Sprintf("%s-%d", hostName, time.Now().UnixNano())),
		),
	)
}

func NewTracerProvider(ctx context.Context, conn *grpc.ClientConn, res *sdkresource.Resource) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.1))),
	), nil
}

func NewLoggerProvider(ctx context.Context, conn *grpc.ClientConn, res *sdkresource.Resource) (*sdklog.LoggerProvider, error) {
	exporter, err := otlploggrpc.New(ctx, otlploggrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}

	return sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	), nil
}

func NewMeterProvider(ctx context.Context, conn *grpc.ClientConn, res *sdkresource.Resource, interval time.Duration) (*sdkmetric.MeterProvider, error) {
	exporter, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	), nil
}

// NewOTLPClient dials the collector without TLS.
// TODO: take collector TLS material from config once the collector terminates TLS.
func NewOTLPClient(endpoint string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithConnectParams(grpc.ConnectParams{MinConnectTimeout: 5 * time.Second}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to %s: %w", endpoint, err)
	}
	return conn, nil
}

// NewZapLogger builds the stdout logger and tees it into any extra cores,
// such as the otelzap bridge.
func NewZapLogger(cfg *config.Config, extra ...zapcore.Core) *zap.Logger {
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(cfg.LOG_LEVEL)); err != nil {
		level = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	if cfg.DEV_MODE {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.MessageKey = "message"
		encoderConfig.FunctionKey = zapcore.OmitKey
		encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.EncodeDuration = zapcore.SecondsDurationEncoder
		encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	cores := append([]zapcore.Core{zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)}, extra...)

	return zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(
			zap.String("service.name", cfg.SERVICE_NAME),
			zap.String("service.version", cfg.SERVICE_VERSION),
			zap.String("deployment.environment", cfg.ENVIRONMENT),
		),
	)
}

func syncLogger(log *zap.Logger) error {
	// Syncing stdout fails with EINVAL on some terminals; that is not a shutdown failure.
	if err := log.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		return fmt.Errorf("zap sync failed: %w", err)
	}
	return nil
}

// Command imprintd serves a provenance record store over gRPC. Deletion
// requests are authorized server side against each record's stored public
// key, so an untrusted client can never destroy another creator's record.
package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"github.com/chewton2k/Imprint/store"
	"github.com/chewton2k/Imprint/store/grpcstore"
	"github.com/chewton2k/Imprint/store/pebblestore"
)

func main() {
	fs := flag.NewFlagSet("imprintd", flag.ExitOnError)
	configPath := fs.String("config", "", "path to TOML config file")
	listen := fs.String("listen", "", "listen address (overrides config)")
	backend := fs.String("backend", "", "record store backend: memory or pebble (overrides config)")
	dataDir := fs.String("data-dir", "", "pebble data directory (overrides config)")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	_ = fs.Parse(os.Args[1:])

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("component", "imprintd").Logger()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse log level")
	}
	logger = logger.Level(level)

	st, closeFn, err := openBackend(cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Backend).Msg("open record store")
	}
	if closeFn != nil {
		defer closeFn()
	}

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		logger.Fatal().Err(err).Str("listen", cfg.Listen).Msg("listen")
	}
	defer lis.Close()

	var serverOpts []grpc.ServerOption
	serverOpts = append(serverOpts, grpc.ChainUnaryInterceptor(requestLogger(logger)))
	if cfg.MaxMsgBytes > 0 {
		serverOpts = append(serverOpts,
			grpc.MaxRecvMsgSize(cfg.MaxMsgBytes),
			grpc.MaxSendMsgSize(cfg.MaxMsgBytes))
	}

	s := grpc.NewServer(serverOpts...)
	grpcstore.RegisterRecordStoreServer(s, &grpcstore.Server{Store: st})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		s.GracefulStop()
	}()

	logger.Info().
		Str("listen", lis.Addr().String()).
		Str("backend", cfg.Backend).
		Msg("serving")
	if err := s.Serve(lis); err != nil {
		logger.Fatal().Err(err).Msg("serve")
	}
	logger.Info().Msg("stopped")
}

func openBackend(cfg Config) (store.Store, func() error, error) {
	switch cfg.Backend {
	case "memory":
		return store.NewMemory(), nil, nil
	case "pebble":
		db, err := pebblestore.Open(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	default:
		return nil, nil, &unknownBackendError{name: cfg.Backend}
	}
}

type unknownBackendError struct{ name string }

func (e *unknownBackendError) Error() string {
	return "unknown backend " + e.name + " (want memory or pebble)"
}

// requestLogger tags each RPC with a request id and logs its outcome.
func requestLogger(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		id := uuid.NewString()
		start := time.Now()
		resp, err := handler(ctx, req)
		ev := logger.Info()
		if err != nil {
			ev = logger.Warn().Err(err)
		}
		ev.Str("request_id", id).
			Str("method", info.FullMethod).
			Dur("elapsed", time.Since(start)).
			Msg("rpc")
		return resp, err
	}
}

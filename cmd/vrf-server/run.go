package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mangekyou-labs/kamui-vrf/internal/cache"
	"github.com/mangekyou-labs/kamui-vrf/internal/coordinator"
	"github.com/mangekyou-labs/kamui-vrf/internal/crosschain"
	"github.com/mangekyou-labs/kamui-vrf/internal/httpapi"
	"github.com/mangekyou-labs/kamui-vrf/internal/metrics"
	"github.com/mangekyou-labs/kamui-vrf/internal/oracle"
	"github.com/mangekyou-labs/kamui-vrf/internal/telemetry"
	"github.com/mangekyou-labs/kamui-vrf/internal/vrfcrypto"
	"github.com/mangekyou-labs/kamui-vrf/pkg/config"
)

func cmdRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	keypairPath := fs.String("keypair", "", "Path to this oracle's keypair file (required)")
	listen := fs.String("listen", "", "Override SERVER_HOST:SERVER_PORT for the HTTP facade")
	wsLocalEID := fs.Uint("ws-local-eid", 0, "Local endpoint id for the websocket cross-chain peer link (0 disables it)")
	wsPeerEID := fs.Uint("ws-peer-eid", 0, "Remote endpoint id to dial for the websocket peer link")
	wsPeerURL := fs.String("ws-peer-url", "", "Websocket URL of the remote peer to dial")
	sweepInterval := fs.String("sweep-cron", "@every 1m", "Cron schedule for the expired-request sweep")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *keypairPath == "" {
		return fmt.Errorf("--keypair is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *listen != "" {
		host, port, splitErr := splitListenAddr(*listen)
		if splitErr != nil {
			return splitErr
		}
		cfg.Server.Host, cfg.Server.Port = host, port
	}

	logger := telemetry.New(telemetry.Config{
		Service: "vrf-server",
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
	})

	sk, kf, err := vrfcrypto.LoadKeypair(*keypairPath)
	if err != nil {
		return err
	}
	logger.Info().Str("public_key", kf.PublicKey).Msg("loaded oracle keypair")

	admin := sk.PublicKey()
	registry := oracle.Initialize(admin, cfg.Registry.MinStake, cfg.Registry.RotationFrequency, uint64(time.Now().Unix()), metrics.OracleEventSink{})

	var fpIndex coordinator.FingerprintIndex
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opt, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			return fmt.Errorf("parse REDIS_URL: %w", parseErr)
		}
		client := redis.NewClient(opt)
		fpIndex = cache.NewRedisFingerprintIndex(client, 24*time.Hour)
		logger.Info().Str("redis_url", redisURL).Msg("fingerprint side index enabled")
	}

	coord := coordinator.New(coordinator.Config{
		Registry:         registry,
		EventSink:        metrics.EventSink{},
		Logger:           logger,
		ExpirySlots:      cfg.ExpirySlots,
		FingerprintIndex: fpIndex,
		EnforceVrfKey:    cfg.EnforceVrfKey,
		RateLimiterFactory: func(authority [32]byte) *rate.Limiter {
			return rate.NewLimiter(rate.Limit(10), 20)
		},
	})

	var auth *httpapi.AdminAuth
	if cfg.Auth.JWTSecret != "" {
		auth = httpapi.NewAdminAuth(cfg.Auth.JWTSecret)
	} else {
		logger.Warn().Msg("AUTH_JWT_SECRET unset: generating an ephemeral secret, admin tokens issued elsewhere will not validate")
		var randSecret [32]byte
		if _, err := rand.Read(randSecret[:]); err != nil {
			return fmt.Errorf("generate ephemeral admin secret: %w", err)
		}
		auth = httpapi.NewAdminAuth(hex.EncodeToString(randSecret[:]))
	}
	server := httpapi.New(coord, registry, logger, auth)

	var wsTransport *crosschain.WSTransport
	if *wsLocalEID != 0 {
		wsTransport = crosschain.NewWSTransport(uint32(*wsLocalEID), admin)
		receiver := crosschain.New(map[uint32][32]byte{uint32(*wsPeerEID): admin}, crosschain.Config{
			Transport:   wsTransport,
			Coordinator: coord,
			SubscriptionResolver: func(srcEID uint32, requester [32]byte) [32]byte {
				return requester
			},
			Slots: func() (uint64, int64) {
				now := time.Now()
				return uint64(now.Unix()), now.Unix()
			},
		})
		wsTransport.SetReceiveHandler(receiver.LzReceive)
		if *wsPeerURL != "" {
			dialCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := wsTransport.Dial(dialCtx, uint32(*wsPeerEID), *wsPeerURL); err != nil {
				logger.Warn().Err(err).Msg("failed to dial websocket peer; continuing without it")
			}
		}
		logger.Info().Uint("local_eid", *wsLocalEID).Msg("websocket cross-chain peer link enabled")
	}

	c := cron.New()
	if _, err := c.AddFunc(*sweepInterval, func() { sweepExpired(coord, logger) }); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	c.Start()
	defer c.Stop()

	handler := http.Handler(server)
	if wsTransport != nil {
		mux := http.NewServeMux()
		mux.Handle("/ws/peer", wsTransport.ServeHTTP(uint32(*wsPeerEID)))
		mux.Handle("/", server)
		handler = mux
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{Addr: addr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("vrf-server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// sweepExpired runs clean_expired over every known pool, the periodic
// counterpart to the on-demand /pools/{id}/clean endpoint: best-effort
// cleanup, now scheduled rather than caller-driven.
func sweepExpired(coord *coordinator.Coordinator, logger zerolog.Logger) {
	now := uint64(time.Now().Unix())
	for _, ref := range coord.Pools() {
		n, err := coord.CleanExpired(ref.Subscription, ref.PoolID, now)
		if err != nil {
			logger.Warn().Err(err).Uint8("pool_id", ref.PoolID).Msg("sweep: clean_expired failed")
			continue
		}
		if n > 0 {
			logger.Info().Uint8("pool_id", ref.PoolID).Uint32("expired_count", n).Msg("sweep: cleaned expired requests")
		}
	}
}

func splitListenAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("--listen: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("--listen: invalid port %q: %w", portStr, err)
	}
	return host, port, nil
}

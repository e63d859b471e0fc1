package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shadowchat/shadowchat/internal/api"
	"github.com/shadowchat/shadowchat/internal/config"
	"github.com/shadowchat/shadowchat/internal/server"
	"github.com/shadowchat/shadowchat/internal/stats"
	"github.com/shadowchat/shadowchat/internal/store"
)

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	redisURL       string
	roomTTL        time.Duration
	allowedOrigins stringSliceFlag
)

func main() {
	flag.StringVar(&addr, "addr", "localhost:8000", "server address")
	flag.StringVar(&redisURL, "redis-url", "", "redis connection url for room metadata (in-memory store when unset)")
	flag.DurationVar(&roomTTL, "room-ttl", server.DefaultRoomTTL, "time before an unburned room expires")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	logger := log.New(os.Stderr, "[shadowchat] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, redisURL, roomTTL, allowedOrigins)
	if err != nil {
		logger.Fatal("config:", err)
	}

	ks := store.New(context.Background(), cfg.RedisURL, logger)
	defer func() {
		if err := ks.Close(); err != nil {
			logger.Println("store close:", err)
		}
	}()

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	registry := server.NewRegistry(logger)
	gateway := server.NewGateway(logger, ks, registry, statsUpdater, cfg.RoomTTL)

	app := api.NewApp(mux, logger, gateway, statsUpdater, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := app.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutdown complete")
}

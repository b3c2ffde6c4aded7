package main

import (
	"context"
	"expvar"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/MacroHEX/auditoria-informatica/internal/config"
	"github.com/MacroHEX/auditoria-informatica/internal/db"
	"github.com/MacroHEX/auditoria-informatica/internal/httpapi"
	"github.com/MacroHEX/auditoria-informatica/internal/hub"
	"github.com/MacroHEX/auditoria-informatica/internal/queue"
	"github.com/MacroHEX/auditoria-informatica/internal/realtime"
	"github.com/MacroHEX/auditoria-informatica/internal/store/postgres"
	"github.com/MacroHEX/auditoria-informatica/internal/telemetry"
)

func main() {
	cfg := config.Load()

	shutdownTelemetry := telemetry.Setup("ticket-service")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	pool, err := db.NewPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	ticketStore := postgres.NewStore(pool)
	broadcastHub := hub.New()
	ticketQueue := queue.NewService(ticketStore, realtime.NewBroadcaster(broadcastHub))

	handler := httpapi.NewHandler(ticketQueue, httpapi.Options{
		RecentCallsLimit: cfg.RecentCallsLimit,
	})
	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		IPPerMinute: cfg.RateLimitPerMinute,
		IPBurst:     cfg.RateLimitBurst,
	})
	realtimeHandler := realtime.NewHandler(ticketQueue, broadcastHub)

	mux := http.NewServeMux()
	mux.Handle("/metrics", expvar.Handler())
	mux.Handle("/realtime/", realtimeHandler.SockJS("/realtime"))
	mux.Handle("/", handler.Routes())

	otelHandler := otelhttp.NewHandler(httpapi.LoggingMiddleware(limiter.Middleware(mux)), "ticket-service")
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("ticket-service listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

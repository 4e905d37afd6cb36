// launching the server, upstream client, kafka
package appServer

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/genrelay/config"
	"github.com/ds124wfegd/genrelay/internal/pkg/kafka"
	"github.com/ds124wfegd/genrelay/internal/pkg/retry"
	"github.com/ds124wfegd/genrelay/internal/pkg/wavespeed"
	"github.com/ds124wfegd/genrelay/internal/service"
	"github.com/ds124wfegd/genrelay/internal/transport"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 30 * time.Second

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.Timeout, // must outlive the whole poll loop
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// NewRelay builds the relay service with its upstream client and poll policy.
func NewRelay(cfg *config.Config, producer kafka.Producer) service.RelayService {
	if cfg.Wavespeed.APIKey == "" {
		logrus.Warn("WAVESPEED_API_KEY is not set, callers must send apiKey in the request body")
	}

	client := wavespeed.NewClient(cfg.Relay.RequestTimeout)
	retryManager := retry.NewRetryManager(cfg.Relay.MaxAttempts, cfg.Relay.PollInterval, cfg.Relay.MaxConsecutiveErrors)
	return service.NewRelayService(cfg.Wavespeed.APIKey, client, retryManager, producer)
}

func NewHandler(cfg *config.Config, relay service.RelayService) http.Handler {
	return transport.InitRoutes(transport.NewRelayHandler(relay), cfg)
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(new(logrus.JSONFormatter))

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	// payload numbers are forwarded upstream exactly as received
	binding.EnableDecoderUseNumber = true

	kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer kafkaProducer.Close()

	relay := NewRelay(cfg, kafkaProducer)
	// runs before the producer closes: the last job events still go out
	defer relay.Close()

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, NewHandler(cfg, relay)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.WithFields(logrus.Fields{
		"port":          cfg.Server.Port,
		"max_attempts":  cfg.Relay.MaxAttempts,
		"poll_interval": cfg.Relay.PollInterval.String(),
	}).Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}

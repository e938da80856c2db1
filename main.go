package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	ghandlers "github.com/gorilla/handlers"
	"github.com/joho/godotenv"

	"github.com/awmbw/live-mart/handlers"
	"github.com/awmbw/live-mart/internal/auth"
	"github.com/awmbw/live-mart/internal/consul"
	"github.com/awmbw/live-mart/internal/feedback"
	"github.com/awmbw/live-mart/internal/geo"
	"github.com/awmbw/live-mart/internal/notify"
	"github.com/awmbw/live-mart/internal/orders"
	"github.com/awmbw/live-mart/internal/otp"
	"github.com/awmbw/live-mart/internal/payments"
	"github.com/awmbw/live-mart/internal/products"
	"github.com/awmbw/live-mart/internal/search"
	"github.com/awmbw/live-mart/internal/stores/kafka"
	"github.com/awmbw/live-mart/internal/stores/postgres"
	"github.com/awmbw/live-mart/internal/users"
	"github.com/awmbw/live-mart/pkg/logkey"
)

const serviceName = "live-mart"

func main() {
	if err := startApp(); err != nil {
		slog.Error("startup failed", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func startApp() error {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on environment")
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	})))

	db, err := postgres.OpenDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("migrations applied")

	keys, err := auth.NewKeys(os.Getenv("JWT_SECRET"))
	if err != nil {
		return fmt.Errorf("loading signing keys: %w", err)
	}

	usersConf, err := users.NewConf(db)
	if err != nil {
		return err
	}
	productsConf, err := products.NewConf(db)
	if err != nil {
		return err
	}
	ordersConf, err := orders.NewConf(db)
	if err != nil {
		return err
	}
	searchConf, err := search.NewConf(db, usersConf, productsConf)
	if err != nil {
		return err
	}
	feedbackConf, err := feedback.NewConf(db)
	if err != nil {
		return err
	}
	otpConf, err := otp.NewConf(db)
	if err != nil {
		return err
	}

	// Kafka is optional. Without a broker the API still serves; events are
	// simply not produced.
	var kafkaConf *kafka.Conf
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		kafkaConf, err = kafka.NewConf(brokers)
		if err != nil {
			return fmt.Errorf("connecting to kafka: %w", err)
		}
		defer kafkaConf.Close()
		slog.Info("kafka producer ready", slog.String("brokers", brokers))
	} else {
		slog.Warn("KAFKA_BROKERS not set, event production disabled")
	}

	api := handlers.API(handlers.Deps{
		Users:    usersConf,
		Products: productsConf,
		Orders:   ordersConf,
		Search:   searchConf,
		Feedback: feedbackConf,
		OTP:      otpConf,
		Notify:   notify.NewConf(),
		Payments: payments.NewConf(),
		Kafka:    kafkaConf,
		Geocoder: geo.NewGeocoder(),
		Keys:     keys,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid PORT %q: %w", port, err)
	}

	// Self-registration is optional too: a missing agent only costs service
	// discovery, not the API.
	serviceID := fmt.Sprintf("%s-%s", serviceName, port)
	if os.Getenv("CONSUL_HTTP_ADDR") != "" {
		client, err := consul.NewClient()
		if err != nil {
			return fmt.Errorf("connecting to consul: %w", err)
		}
		address := os.Getenv("SERVICE_ADDRESS")
		if address == "" {
			address = "localhost"
		}
		if err := consul.RegisterService(client, serviceName, serviceID, address, portNum); err != nil {
			return err
		}
		defer func() {
			if err := consul.DeregisterService(client, serviceID); err != nil {
				slog.Error("consul deregistration failed", slog.String(logkey.ERROR, err.Error()))
			}
		}()
		slog.Info("registered with consul", slog.String("serviceId", serviceID))
	}

	cors := ghandlers.CORS(
		ghandlers.AllowedOrigins([]string{"*"}),
		ghandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		ghandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      cors(api),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", slog.String("port", port))
		errCh <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		slog.Info("shutdown started", slog.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			server.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	getBookingHandler "github.com/m04kA/SMC-BookingSync/internal/api/handlers/get_booking"
	getConnectionHandler "github.com/m04kA/SMC-BookingSync/internal/api/handlers/get_connection"
	getUserBookingsHandler "github.com/m04kA/SMC-BookingSync/internal/api/handlers/get_user_bookings"
	refreshBookingsHandler "github.com/m04kA/SMC-BookingSync/internal/api/handlers/refresh_bookings"
	"github.com/m04kA/SMC-BookingSync/internal/api/middleware"
	"github.com/m04kA/SMC-BookingSync/internal/config"
	"github.com/m04kA/SMC-BookingSync/internal/domain"
	bookingRepo "github.com/m04kA/SMC-BookingSync/internal/infra/storage/booking"
	"github.com/m04kA/SMC-BookingSync/internal/integrations/bookingapi"
	"github.com/m04kA/SMC-BookingSync/internal/integrations/realtime"
	bookingsService "github.com/m04kA/SMC-BookingSync/internal/service/bookings"
	"github.com/m04kA/SMC-BookingSync/pkg/logger"
	"github.com/m04kA/SMC-BookingSync/pkg/metrics"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-BookingSync...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	// Методы *metrics.Metrics безопасны для nil, поэтому при выключенных метриках передаем nil
	var metricsCollector *metrics.Metrics
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Клиент полной загрузки
	fetcher := bookingapi.NewClient(
		cfg.BookingAPI.URL,
		config.Duration(cfg.BookingAPI.Timeout),
		log,
	)
	log.Info("Booking API client initialized (url=%s timeout=%ds)", cfg.BookingAPI.URL, cfg.BookingAPI.Timeout)

	// Хранилище согласованного списка
	store := bookingRepo.NewRepository(
		log,
		bookingRepo.WithMetrics(metricsCollector),
		bookingRepo.WithUpdatedAtGate(cfg.Sync.GateOnUpdatedAt),
	)

	// Транспорт и адаптер push-канала
	transport := newTransport(cfg.Realtime, log)
	channel := realtime.NewChannel(transport, log, realtime.WithChannelMetrics(metricsCollector))
	log.Info("Push channel initialized (transport=%s)", cfg.Realtime.Transport)

	// Сервис синхронизации
	syncSvc := bookingsService.NewService(
		fetcher,
		store,
		channel,
		log,
		bookingsService.WithMetrics(metricsCollector),
		bookingsService.WithElapsedRefresh(config.Duration(cfg.Sync.ElapsedRefreshSeconds)),
	)

	// Запускаем синхронизацию пользователя из конфига
	stopSync := make(chan struct{})
	if cfg.Sync.UserID != "" {
		startSync(syncSvc, cfg, log)
		if cfg.Sync.RefreshInterval > 0 {
			go refreshLoop(syncSvc, cfg.Sync.UserID, config.Duration(cfg.Sync.RefreshInterval), stopSync, log)
		}
	} else {
		log.Warn("sync.user_id is empty: set %s to start a sync session", config.EnvUserID)
	}

	// Инициализируем handlers
	getUserBookings := getUserBookingsHandler.NewHandler(syncSvc, log)
	getBooking := getBookingHandler.NewHandler(syncSvc, log)
	refreshBookings := refreshBookingsHandler.NewHandler(syncSvc, log)
	getConnection := getConnectionHandler.NewHandler(syncSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestLogging(log))

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		log.Info("HTTP metrics middleware enabled")

		r.Handle(cfg.Metrics.Path, metricsCollector.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// Вкладка списка бронирований
	api.HandleFunc("/users/{userId}/bookings", getUserBookings.Handle).Methods(http.MethodGet)

	// Одно бронирование
	api.HandleFunc("/users/{userId}/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)

	// Полная перезагрузка списка
	api.HandleFunc("/users/{userId}/bookings/refresh", refreshBookings.Handle).Methods(http.MethodPost)

	// Состояние push-канала
	api.HandleFunc("/users/{userId}/connection", getConnection.Handle).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  config.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: config.Duration(cfg.Server.WriteTimeout),
		IdleTimeout:  config.Duration(cfg.Server.IdleTimeout),
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	close(stopSync)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		config.Duration(cfg.Server.ShutdownTimeout),
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Отменяет загрузку, отключает и освобождает канал
	syncSvc.Close()

	log.Info("Server stopped gracefully")
}

func newTransport(cfg config.RealtimeConfig, log *logger.Logger) realtime.Transport {
	if cfg.Transport == config.TransportKafka {
		return realtime.NewKafkaTransport(realtime.KafkaConfig{
			Brokers:        cfg.Kafka.Brokers,
			Topic:          cfg.Kafka.Topic,
			GroupID:        cfg.Kafka.GroupID,
			JoinTopic:      cfg.Kafka.JoinTopic,
			CommitInterval: config.Millis(cfg.Kafka.CommitIntervalMs),
		}, log)
	}

	return realtime.NewWebsocketTransport(realtime.WebsocketConfig{
		URL:               cfg.Websocket.URL,
		HandshakeTimeout:  config.Duration(cfg.Websocket.HandshakeTimeout),
		WriteTimeout:      config.Duration(cfg.Websocket.WriteTimeout),
		ReconnectAttempts: cfg.Websocket.ReconnectAttempts,
		BackoffMin:        config.Millis(cfg.Websocket.BackoffMinMs),
		BackoffMax:        config.Millis(cfg.Websocket.BackoffMaxMs),
	}, log)
}

// startSync выполняет первую загрузку и подключает канал
// Ошибки не фатальны: список догонит следующая загрузка
func startSync(svc *bookingsService.Service, cfg *config.Config, log *logger.Logger) {
	userID := cfg.Sync.UserID
	timeout := config.Duration(cfg.BookingAPI.Timeout)

	fetchCtx, cancelFetch := context.WithTimeout(context.Background(), timeout)
	defer cancelFetch()
	if _, err := svc.Fetch(fetchCtx, userID); err != nil {
		log.Error("Initial fetch for user=%s failed: %v", userID, err)
	}

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), config.Duration(cfg.Realtime.ConnectTimeout))
	defer cancelConnect()

	err := svc.Connect(connectCtx, userID, bookingsService.Subscriber{
		OnUpdate: func(b domain.UnifiedBooking) {
			log.Info("Booking id=%s is now %s", b.ID, b.DisplayStatus)
		},
		OnError: func(err error) {
			log.Error("Push channel error for user=%s: %v", userID, err)
		},
	})
	if err != nil {
		log.Error("Push channel for user=%s is not connected: %v", userID, err)
	}
}

// refreshLoop периодически перезагружает список, закрывая пропуски канала
func refreshLoop(svc *bookingsService.Service, userID string, interval time.Duration, stop <-chan struct{}, log *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			if _, err := svc.Fetch(ctx, userID); err != nil {
				log.Warn("Periodic fetch for user=%s failed: %v", userID, err)
			}
			cancel()
		}
	}
}

package main

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/example/facility-reservations/internal/application"
	"github.com/example/facility-reservations/internal/config"
	httptransport "github.com/example/facility-reservations/internal/http"
	"github.com/example/facility-reservations/internal/persistence/sqlite"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	tokenGenerator := newTokenGenerator(cfg.SessionSecret)
	now := func() time.Time { return time.Now().In(cfg.Timezone) }

	resourceRepo := newResourceRepositoryAdapter(storage)
	reservationRepo := newReservationRepositoryAdapter(storage)
	userRepo := newUserRepositoryAdapter(storage)
	sessionRepo := newSessionRepositoryAdapter(storage)

	locks := application.NewResourceLocks()
	registryService := application.NewRegistryService(resourceRepo, reservationRepo, locks, idGenerator, now, logger)
	reservationService := application.NewReservationService(reservationRepo, resourceRepo, locks, idGenerator, now, logger)
	availabilityService := application.NewAvailabilityService(resourceRepo, reservationRepo, now, logger)
	userService := application.NewUserService(userRepo, idGenerator, now)
	authService := application.NewAuthService(userRepo, sessionRepo, nil, tokenGenerator, now, cfg.SessionTTL, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:         httptransport.NewAuthHandler(authService, logger),
		Users:        httptransport.NewUserHandler(userService, logger),
		Resources:    httptransport.NewResourceHandler(registryService, logger),
		Reservations: httptransport.NewReservationHandler(reservationService, logger),
		Availability: httptransport.NewAvailabilityHandler(availabilityService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.CORS(),
			httptransport.RateLimit(cfg.RateLimit, logger),
			sessionGate(authService, logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("reservations API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// sessionGate enforces authenticated sessions on every route except the
// login endpoint itself.
func sessionGate(validator httptransport.SessionValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	require := httptransport.RequireSession(validator, logger)
	return func(next http.Handler) http.Handler {
		protected := require(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/sessions" && r.Method == http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			protected.ServeHTTP(w, r)
		})
	}
}

func newTokenGenerator(secret string) func() string {
	key := []byte(secret)
	return func() string {
		buf := make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, buf); err != nil {
			return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
		}
		mac := hmac.New(sha256.New, key)
		mac.Write(buf)
		return hex.EncodeToString(mac.Sum(nil))
	}
}

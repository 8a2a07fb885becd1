// Package bootstrap builds the shared infrastructure used by every binary.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"

	"github.com/jurix/jurix/infrastructure/service/cache"
	"github.com/jurix/jurix/infrastructure/service/jwt"
	"github.com/jurix/jurix/infrastructure/service/logger"
	"github.com/jurix/jurix/infrastructure/service/password"
	"github.com/jurix/jurix/internal/adapter/persistence"
	"github.com/jurix/jurix/internal/adapter/queue"
	"github.com/jurix/jurix/internal/config"
	"github.com/jurix/jurix/internal/ports"
	"github.com/jurix/jurix/internal/usecase"
)

// BcryptCost is the work factor for stored password hashes
const BcryptCost = 12

// NewLogger builds the structured logger for cfg
func NewLogger(cfg *config.Config) logger.Logger {
	return logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: cfg.ServiceName,
		Output:      os.Stdout,
	})
}

// OpenDatabase opens the connection pool and pings it
func OpenDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// OpenRedis connects to Redis. It returns nil, nil when REDIS_URL is unset.
func OpenRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	return cache.NewRedisClient(ctx, cfg.RedisURL)
}

// Services are the use cases and adapters shared by the server and the CLI
type Services struct {
	Users     ports.UserRepository
	Contracts ports.ContractRepository
	AuditRepo ports.AuditRepository
	Retry     ports.AuditRetryQueue
	Tokens    *jwt.JWTService

	ContractUseCase *usecase.ContractUseCase
	AuditUseCase    *usecase.AuditUseCase
	AuthUseCase     *usecase.AuthUseCase
}

// NewServices wires repositories and use cases. rdb and metrics may be nil.
func NewServices(cfg *config.Config, db *sql.DB, rdb *redis.Client, metrics ports.ContractMetrics, log logger.Logger) (*Services, error) {
	tokens, err := jwt.NewJWTService(jwt.Config{
		Secret:         cfg.JWTSecret,
		Issuer:         cfg.JWTIssuer,
		AccessTokenTTL: cfg.AccessTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	s := &Services{
		Users:     persistence.NewPostgresUserRepository(db),
		Contracts: persistence.NewPostgresContractRepository(db),
		AuditRepo: persistence.NewPostgresAuditRepository(db),
		Tokens:    tokens,
	}
	if rdb != nil {
		s.Retry = queue.NewRedisAuditQueue(rdb, cfg.AuditRetryKey)
	}

	s.ContractUseCase = usecase.NewContractUseCase(s.Contracts, s.AuditRepo, s.Retry, metrics, log)
	s.AuditUseCase = usecase.NewAuditUseCase(s.AuditRepo, s.Retry, log)
	s.AuthUseCase = usecase.NewAuthUseCase(s.Users, s.AuditRepo, password.NewBcryptPasswordService(BcryptCost), tokens, log)
	return s, nil
}

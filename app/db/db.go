package database

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/FACorreiaa/go-user-accounts/config"
)

const defaultRetries = 5

type DatabaseConfig struct {
	ConnectionURL string
	DatabaseName  string
	MaxPoolSize   uint64
}

// NewDatabaseConfig generates the MongoDB connection URL from configuration.
func NewDatabaseConfig(cfg *config.Config, logger *slog.Logger) (*DatabaseConfig, error) {
	if cfg == nil || cfg.Repositories.Mongo.Host == "" {
		errMsg := "Mongo configuration is missing or invalid"
		logger.Error(errMsg)
		return nil, fmt.Errorf("%s", errMsg)
	}

	mongoCfg := cfg.Repositories.Mongo
	connURL := url.URL{
		Scheme: "mongodb",
		Host:   fmt.Sprintf("%s:%s", mongoCfg.Host, mongoCfg.Port),
	}
	// Credentials are optional for local deployments
	if mongoCfg.Username != "" && mongoCfg.Password != "" {
		connURL.User = url.UserPassword(mongoCfg.Username, mongoCfg.Password)
	}

	logger.Info("Database connection URL generated", slog.String("host", connURL.Host), slog.String("database", mongoCfg.DB))

	return &DatabaseConfig{
		ConnectionURL: connURL.String(),
		DatabaseName:  mongoCfg.DB,
		MaxPoolSize:   mongoCfg.MaxPoolSize,
	}, nil
}

// Init creates the MongoDB client and returns a handle to the configured database.
func Init(ctx context.Context, dbCfg *DatabaseConfig, logger *slog.Logger) (*mongo.Client, *mongo.Database, error) {
	logger.Info("Initializing database client...")

	opts := options.Client().ApplyURI(dbCfg.ConnectionURL)
	if dbCfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(dbCfg.MaxPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		logger.Error("Failed to create database client", slog.Any("error", err))
		return nil, nil, fmt.Errorf("failed creating db client: %w", err)
	}

	logger.Info("Database client initialized")
	return client, client.Database(dbCfg.DatabaseName), nil
}

// WaitForDB waits for the database to answer pings before the service starts.
func WaitForDB(ctx context.Context, client *mongo.Client, logger *slog.Logger) bool {
	maxAttempts := defaultRetries
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err := client.Ping(ctx, readpref.Primary())
		if err == nil {
			logger.InfoContext(ctx, "Database connection successful")
			return true
		}

		waitDuration := time.Duration(attempts) * 200 * time.Millisecond
		logger.WarnContext(ctx, "Database ping failed, retrying...",
			slog.Int("attempt", attempts),
			slog.Int("max_attempts", maxAttempts),
			slog.Duration("wait_duration", waitDuration),
			slog.String("error", err.Error()),
		)
		// Don't wait after the last attempt
		if attempts < maxAttempts {
			time.Sleep(waitDuration)
		}
	}
	logger.ErrorContext(ctx, "Database connection failed after multiple retries")
	return false
}

// Close disconnects the client, bounded by a short timeout so shutdown never hangs.
func Close(client *mongo.Client, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logger.Error("Failed to disconnect database client", slog.Any("error", err))
	}
}

package config

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

type Config struct {
	Port            string
	StoreDriver     string
	Collection      string
	PublicBaseURL   string
	StaticDir       string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration

	Mongo    MongoConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
	Log      LogConfig
}

type MongoConfig struct {
	URI      string
	Database string
}

type PostgresConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

type KafkaConfig struct {
	Broker string
	Topic  string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	port := getEnv("PORT", "8888")
	timeout, err := time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"))
	if err != nil {
		timeout = 10 * time.Second
	}

	return &Config{
		Port:            port,
		StoreDriver:     strings.ToLower(getEnv("STORE_DRIVER", DriverMongo)),
		Collection:      getEnv("MENU_COLLECTION", "menu"),
		PublicBaseURL:   getEnv("PUBLIC_BASE_URL", "http://localhost:"+port),
		StaticDir:       getEnv("STATIC_DIR", "./public"),
		AllowedOrigins:  splitList(getEnv("CORS_ORIGINS", "*")),
		ShutdownTimeout: timeout,
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://127.0.0.1:27017/coffeedb"),
			Database: getEnv("MONGO_DATABASE", "coffeedb"),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "coffeedb"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
		},
		Kafka: KafkaConfig{
			Broker: os.Getenv("KAFKA_BROKER"),
			Topic:  getEnv("KAFKA_TOPIC", "menu-events"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

func (c PostgresConfig) ConnString() string {
	return "host=" + c.Host + " port=" + c.Port + " user=" + c.User +
		" password=" + c.Password + " dbname=" + c.Name + " sslmode=disable"
}

func MustInitMongo(ctx context.Context, cfg MongoConfig, log logrus.FieldLogger) *mongo.Client {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		log.WithError(err).Fatal("Failed to ping MongoDB")
	}

	return client
}

func MustInitPostgres(cfg PostgresConfig, log logrus.FieldLogger) *sql.DB {
	db, err := sql.Open("postgres", cfg.ConnString())
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	if err = db.Ping(); err != nil {
		log.WithError(err).Fatal("Failed to ping database")
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return db
}

// NewKafkaWriter returns nil when no broker is configured.
func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	if cfg.Broker == "" {
		return nil
	}
	return &kafka.Writer{
		Addr:     kafka.TCP(splitList(cfg.Broker)...),
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

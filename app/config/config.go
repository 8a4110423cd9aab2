package config

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

type Config struct {
	DB        *sql.DB
	JWTSecret []byte
	SMTP      SMTPConfig
	// ReminderHour < 0 disables the reminder scheduler.
	ReminderHour int
	ListenAddr   string
	SiteURL      string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

var AppConfig *Config

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads .env (if present) and environment variables into AppConfig,
// then opens the database connection.
func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getenv("PGHOST", "localhost"),
			getenv("PGPORT", "5432"),
			getenv("PGUSER", "postgres"),
			getenv("PGPASSWORD", ""),
			getenv("PGDATABASE", "classfund"),
			getenv("PGSSLMODE", "disable"),
		)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal("Failed to open database connection:", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if err = db.Ping(); err != nil {
		log.Fatal("Cannot establish database connection: ", err)
	}

	smtpPort, _ := strconv.Atoi(getenv("SMTP_PORT", "587"))
	reminderHour := -1
	if v := os.Getenv("REMINDER_HOUR"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h >= 0 && h <= 23 {
			reminderHour = h
		}
	}

	AppConfig = &Config{
		DB:        db,
		JWTSecret: []byte(getenv("JWT_SECRET", "classfund-dev-secret")),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     smtpPort,
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getenv("SMTP_FROM", os.Getenv("SMTP_USERNAME")),
		},
		ReminderHour: reminderHour,
		ListenAddr:   getenv("LISTEN_ADDR", ":8080"),
		SiteURL:      getenv("SITE_URL", "http://localhost:8080"),
	}
	log.Println("Database connected successfully")
}

func GetDB() *sql.DB {
	return AppConfig.DB
}

package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/funday-app/funday-server/internal/models"
)

type Config struct {
	DB_HOST     string
	DB_PORT     string
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string

	JWT_SECRET     string
	REFRESH_SECRET string

	ES_URL      string
	ES_USER     string
	ES_PASSWORD string

	KAFKA_ADDRESS string

	KAKAO_CLIENT_ID  string
	NAVER_CLIENT_ID  string
	GOOGLE_CLIENT_ID string

	SLACK_WEBHOOK_URL     string
	SLACK_OPS_WEBHOOK_URL string

	ALIMTALK_URL        string
	ALIMTALK_API_KEY    string
	ALIMTALK_SENDER_KEY string
	ALIMTALK_SENDER     string

	SMTP_HOST     string
	SMTP_PORT     string
	SMTP_USER     string
	SMTP_PASSWORD string
	MAIL_FROM     string

	SITE_BASE_URL string
	LOG_LEVEL     string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		DB_HOST:     os.Getenv("DB_HOST"),
		DB_PORT:     os.Getenv("DB_PORT"),
		DB_USER:     os.Getenv("DB_USER"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_NAME:     os.Getenv("DB_NAME"),

		JWT_SECRET:     os.Getenv("JWT_SECRET"),
		REFRESH_SECRET: os.Getenv("REFRESH_SECRET"),

		ES_URL:      os.Getenv("ES_URL"),
		ES_USER:     os.Getenv("ES_USER"),
		ES_PASSWORD: os.Getenv("ES_PASSWORD"),

		KAFKA_ADDRESS: os.Getenv("KAFKA_ADDRESS"),

		KAKAO_CLIENT_ID:  os.Getenv("KAKAO_CLIENT_ID"),
		NAVER_CLIENT_ID:  os.Getenv("NAVER_CLIENT_ID"),
		GOOGLE_CLIENT_ID: os.Getenv("GOOGLE_CLIENT_ID"),

		SLACK_WEBHOOK_URL:     os.Getenv("SLACK_WEBHOOK_URL"),
		SLACK_OPS_WEBHOOK_URL: os.Getenv("SLACK_OPS_WEBHOOK_URL"),

		ALIMTALK_URL:        os.Getenv("ALIMTALK_URL"),
		ALIMTALK_API_KEY:    os.Getenv("ALIMTALK_API_KEY"),
		ALIMTALK_SENDER_KEY: os.Getenv("ALIMTALK_SENDER_KEY"),
		ALIMTALK_SENDER:     os.Getenv("ALIMTALK_SENDER"),

		SMTP_HOST:     os.Getenv("SMTP_HOST"),
		SMTP_PORT:     os.Getenv("SMTP_PORT"),
		SMTP_USER:     os.Getenv("SMTP_USER"),
		SMTP_PASSWORD: os.Getenv("SMTP_PASSWORD"),
		MAIL_FROM:     os.Getenv("MAIL_FROM"),

		SITE_BASE_URL: os.Getenv("SITE_BASE_URL"),
		LOG_LEVEL:     os.Getenv("LOG_LEVEL"),
	}

	return config, nil
}

func InitDB() (*gorm.DB, error) {
	configuration, _ := LoadConfig()

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		configuration.DB_USER,
		configuration.DB_PASSWORD,
		configuration.DB_HOST,
		configuration.DB_PORT,
		configuration.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

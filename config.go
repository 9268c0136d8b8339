package main

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr            string
	DatabaseURL     string
	AppKey          string
	AdminEmail      string
	SecureCookies   bool
	SessionLifetime time.Duration

	MailTransport string
	MailAddress   string
	MailPassword  string
	SMTPHost      string
	SMTPPort      string
	AWSRegion     string
}

func loadConfig() Config {
	// A missing .env is fine; the real environment wins either way.
	godotenv.Load()

	cfg := Config{
		Addr:          getenv("ADDR", ":8080"),
		DatabaseURL:   getenv("DATABASE_URL", "blog.db"),
		AppKey:        os.Getenv("APP_KEY"),
		AdminEmail:    normalizeEmail(getenv("ADMIN_EMAIL", "admin@email.com")),
		SecureCookies: os.Getenv("SECURE_COOKIES") == "true",
		MailAddress:   os.Getenv("MAIL_ADDRESS"),
		MailPassword:  os.Getenv("MAIL_PASSWORD"),
		SMTPHost:      getenv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:      getenv("SMTP_PORT", "587"),
		AWSRegion:     getenv("AWS_REGION", "us-east-1"),
	}

	hours, err := strconv.Atoi(getenv("SESSION_LIFETIME_HOURS", "24"))
	if err != nil || hours <= 0 {
		hours = 24
	}
	cfg.SessionLifetime = time.Duration(hours) * time.Hour

	if cfg.AppKey == "" {
		log.Println("WARNING: APP_KEY not set, using a random key; sessions will not survive a restart")
		key, err := generateToken()
		if err != nil {
			log.Fatalf("generating app key: %v", err)
		}
		cfg.AppKey = key
	}

	transport := strings.ToLower(os.Getenv("MAIL_TRANSPORT"))
	if transport == "" {
		transport = "log"
		if cfg.MailAddress != "" {
			transport = "smtp"
		}
	}
	cfg.MailTransport = transport

	return cfg
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

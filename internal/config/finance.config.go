package config

import (
	"os"
	"strings"
)

type AppConfig struct {
	HTTPAddr  string
	RedisAddr string
	RedisPass string

	KafkaBrokers    []string
	EventsTopic     string
	ChatTopic       string

	// Shared secret for gateway webhook signatures and the header carrying them.
	WebhookSecret   string
	SignatureHeader string

	// Seed values for the reference-number counters, used only when a counter
	// does not exist yet.
	CollectionNumberStart string
	ReceiptNumberStart    string
	PaymentNumberStart    string
}

func Load() AppConfig {
	return AppConfig{
		HTTPAddr:  getEnv("HTTP_ADDR", ":8041"),
		RedisAddr: getEnv("REDIS_ADDR", "redis:6379"),
		RedisPass: getEnv("REDIS_PASS", ""),

		KafkaBrokers: getEnvSlice("KAFKA_BROKERS", []string{"kafka:9092"}),
		EventsTopic:  getEnv("KAFKA_EVENTS_TOPIC", "finance_events"),
		ChatTopic:    getEnv("KAFKA_CHAT_TOPIC", "chat_notifications"),

		WebhookSecret:   getEnv("WEBHOOK_SECRET", ""),
		SignatureHeader: getEnv("WEBHOOK_SIGNATURE_HEADER", "X-Razorpay-Signature"),

		CollectionNumberStart: getEnv("COLLECTION_NUMBER_START", "KA-0000"),
		ReceiptNumberStart:    getEnv("RECEIPT_NUMBER_START", "RA-0000"),
		PaymentNumberStart:    getEnv("PAYMENT_NUMBER_START", "PA-0000"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

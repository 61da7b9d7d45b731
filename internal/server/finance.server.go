package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"finance-service/internal/config"
	hrest "finance-service/internal/handler/rest"
	"finance-service/internal/pub"
	"finance-service/internal/repository"
	"finance-service/internal/router"
	"finance-service/internal/service"
	"finance-service/internal/usecase"
	"finance-service/pkg/utils"
)

type Server struct {
	HTTP *http.Server

	dbpool *pgxpool.Pool
	rdb    *redis.Client
	events *pub.Publisher
	chat   *pub.Publisher
	logger *zap.Logger
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	// --- DB connection ---
	dbpool, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	// don't defer dbpool.Close() here, it would close before the server
	// starts; main closes it during shutdown

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})

	events := pub.NewPublisher(cfg.KafkaBrokers, cfg.EventsTopic)
	chat := pub.NewPublisher(cfg.KafkaBrokers, cfg.ChatTopic)

	// --- Init store & usecases ---
	store := repository.NewStore(dbpool)
	ids := utils.NewIDGenerator()

	notifier := usecase.NewNotificationUsecase(events, chat, rdb, logger)
	ledgerUC := usecase.NewLedgerUsecase(store, ids, logger)
	accountUC := usecase.NewAccountUsecase(store, ids, logger)
	receivableUC := usecase.NewReceivableUsecase(store, ledgerUC, ids, notifier, logger)
	reconcileUC := usecase.NewReconcileUsecase(store, ledgerUC, notifier, cfg.WebhookSecret, logger)

	// --- Seed counters and default accounts on startup ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		seeder := service.NewSeeder(store, accountUC, cfg, logger)
		if err := seeder.Seed(ctx); err != nil {
			logger.Warn("startup seeding failed", zap.Error(err))
		}
	}()

	// --- HTTP handlers & routes ---
	ledgerHandler := hrest.NewLedgerHandler(accountUC, ledgerUC, logger)
	receivableHandler := hrest.NewReceivableHandler(receivableUC, logger)
	webhookHandler := hrest.NewWebhookHandler(reconcileUC, cfg.SignatureHeader, logger)

	r := router.SetupRoutes(ledgerHandler, receivableHandler, webhookHandler, logger)

	return &Server{
		HTTP: &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: r,
		},
		dbpool: dbpool,
		rdb:    rdb,
		events: events,
		chat:   chat,
		logger: logger,
	}
}

// Close releases the server's backing connections. Call after the HTTP
// server has stopped accepting requests.
func (s *Server) Close() {
	if err := s.events.Close(); err != nil {
		s.logger.Warn("closing events publisher", zap.Error(err))
	}
	if err := s.chat.Close(); err != nil {
		s.logger.Warn("closing chat publisher", zap.Error(err))
	}
	if err := s.rdb.Close(); err != nil {
		s.logger.Warn("closing redis client", zap.Error(err))
	}
	s.dbpool.Close()
}

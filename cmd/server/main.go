package main

import (
	"context"
	"log"
	"net/http"
	"os"

	webAdapter "sales-ledger/internal/adapters/web"
	"sales-ledger/internal/ai"
	"sales-ledger/internal/app"
	"sales-ledger/internal/core"
	"sales-ledger/internal/db"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	configService := core.NewConfigService(pool)
	inventoryService := core.NewInventoryService(pool, configService, logger)
	saleService := core.NewSaleService(pool, configService)
	purchaseService := core.NewPurchaseService(pool)
	remittanceService := core.NewRemittanceService(pool)
	costingService := core.NewCostingService(pool, logger)
	reportingService := core.NewReportingService(pool, saleService, costingService)
	catalogService := core.NewCatalogService(pool)

	var agent ai.AgentService
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		agent = ai.NewAgent(apiKey)
	} else {
		logger.Warn("OPENAI_API_KEY is not set, order intake disabled")
	}

	svc := app.NewAppService(pool, saleService, purchaseService, inventoryService,
		remittanceService, costingService, reportingService, catalogService, configService, agent)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Warn("JWT_SECRET is not set, requests act as the default operator")
	}
	operator, err := configService.DefaultOperatorName(ctx)
	if err != nil {
		logger.Fatal("default operator", zap.Error(err))
	}
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret, operator, logger)

	logger.Info("server starting", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}

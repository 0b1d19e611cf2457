package main

import (
	"context"
	"log"
	"os"

	"sales-ledger/internal/adapters/cli"
	"sales-ledger/internal/ai"
	"sales-ledger/internal/app"
	"sales-ledger/internal/core"
	"sales-ledger/internal/db"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger := zap.NewNop()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
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
	}

	svc := app.NewAppService(pool, saleService, purchaseService, inventoryService,
		remittanceService, costingService, reportingService, catalogService, configService, agent)

	operator, err := configService.DefaultOperatorName(ctx)
	if err != nil {
		log.Fatalf("Unable to resolve default operator: %v", err)
	}

	cli.Run(ctx, svc, operator, os.Args[1:])
}

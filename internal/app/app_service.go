package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sales-ledger/internal/ai"
	"sales-ledger/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
)

type appService struct {
	pool        *pgxpool.Pool
	sales       core.SaleService
	purchases   core.PurchaseService
	inventory   core.InventoryService
	remittances core.RemittanceService
	costing     core.CostingService
	reporting   core.ReportingService
	catalog     core.CatalogService
	config      core.ConfigService
	agent       ai.AgentService
}

// NewAppService constructs an appService that satisfies ApplicationService.
// agent may be nil when no OpenAI key is configured; InterpretOrder then
// returns an error.
func NewAppService(
	pool *pgxpool.Pool,
	sales core.SaleService,
	purchases core.PurchaseService,
	inventory core.InventoryService,
	remittances core.RemittanceService,
	costing core.CostingService,
	reporting core.ReportingService,
	catalog core.CatalogService,
	config core.ConfigService,
	agent ai.AgentService,
) ApplicationService {
	return &appService{
		pool:        pool,
		sales:       sales,
		purchases:   purchases,
		inventory:   inventory,
		remittances: remittances,
		costing:     costing,
		reporting:   reporting,
		catalog:     catalog,
		config:      config,
		agent:       agent,
	}
}

func (s *appService) CreateSale(ctx context.Context, req CreateSaleRequest) (*SaleResult, error) {
	lines := make([]core.SaleLineInput, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = core.SaleLineInput{
			SpecID:    l.SpecID,
			ProductID: l.ProductID,
			BoxQty:    l.BoxQty,
			ExtraKg:   l.ExtraKg,
		}
	}

	sale, err := s.sales.CreateSale(ctx, core.CreateSaleInput{
		CustomerID:  req.CustomerID,
		PaymentType: core.PaymentType(strings.ToLower(strings.TrimSpace(req.PaymentType))),
		Lines:       lines,
		Discount:    req.Discount,
		ManualTotal: req.ManualTotal,
		SaleTime:    req.SaleTime,
		Actor:       req.Actor,
	})
	if err != nil {
		return nil, err
	}
	return &SaleResult{Sale: sale}, nil
}

func (s *appService) VoidSale(ctx context.Context, saleID, reason, actor string) (*SaleResult, error) {
	sale, err := s.sales.VoidSale(ctx, saleID, reason, actor)
	if err != nil {
		return nil, err
	}
	return &SaleResult{Sale: sale}, nil
}

func (s *appService) GetSale(ctx context.Context, saleID string) (*SaleResult, error) {
	sale, err := s.sales.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return &SaleResult{Sale: sale}, nil
}

func (s *appService) ListSales(ctx context.Context, filter core.SaleFilter) (*SaleListResult, error) {
	sales, err := s.sales.ListSales(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &SaleListResult{Sales: sales}, nil
}

func (s *appService) CreatePurchase(ctx context.Context, req CreatePurchaseRequest) (*PurchaseResult, error) {
	lines := make([]core.PurchaseLineInput, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = core.PurchaseLineInput{
			ProductName: l.ProductName,
			Kg:          l.Kg,
			UnitPrice:   l.UnitPrice,
		}
	}

	purchase, err := s.purchases.CreatePurchase(ctx, core.CreatePurchaseInput{
		Supplier:     req.Supplier,
		Lines:        lines,
		Notes:        req.Notes,
		PurchaseTime: req.PurchaseTime,
		Actor:        req.Actor,
	})
	if err != nil {
		return nil, err
	}
	return &PurchaseResult{Purchase: purchase}, nil
}

func (s *appService) VoidPurchase(ctx context.Context, purchaseID, reason, actor string) (*PurchaseResult, error) {
	purchase, err := s.purchases.VoidPurchase(ctx, purchaseID, reason, actor)
	if err != nil {
		return nil, err
	}
	return &PurchaseResult{Purchase: purchase}, nil
}

func (s *appService) GetPurchase(ctx context.Context, purchaseID string) (*PurchaseResult, error) {
	purchase, err := s.purchases.GetPurchase(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	return &PurchaseResult{Purchase: purchase}, nil
}

func (s *appService) ListPurchases(ctx context.Context, filter core.PurchaseFilter) (*PurchaseListResult, error) {
	purchases, err := s.purchases.ListPurchases(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &PurchaseListResult{Purchases: purchases}, nil
}

func (s *appService) RecordMove(ctx context.Context, req RecordMoveRequest) (*MoveResult, error) {
	move, err := s.inventory.RecordMove(ctx, req.MoveType, req.Source, req.Kg, req.Notes, req.Actor)
	if err != nil {
		return nil, err
	}
	return &MoveResult{Move: move}, nil
}

func (s *appService) CurrentStock(ctx context.Context) (*StockResult, error) {
	snap, err := s.inventory.CurrentStock(ctx)
	if err != nil {
		return nil, err
	}
	return &StockResult{Snapshot: snap}, nil
}

func (s *appService) ListMoves(ctx context.Context, filter core.MoveFilter) (*MoveListResult, error) {
	moves, err := s.inventory.ListMoves(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &MoveListResult{Moves: moves}, nil
}

func (s *appService) StockByProduct(ctx context.Context) ([]core.ProductStock, error) {
	return s.inventory.StockByProduct(ctx)
}

func (s *appService) StockHistory(ctx context.Context, days int) ([]core.StockHistoryPoint, error) {
	return s.inventory.StockHistory(ctx, days)
}

func (s *appService) StockByType(ctx context.Context) ([]core.MoveTypeTotal, error) {
	return s.inventory.StockByType(ctx)
}

func (s *appService) Reconcile(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error) {
	check, err := s.inventory.Reconcile(ctx, req.ActualKg, req.Notes, req.Actor)
	if err != nil {
		return nil, err
	}
	return &ReconcileResult{Check: check}, nil
}

func (s *appService) CreateRemittance(ctx context.Context, req CreateRemittanceRequest) (*RemittanceResult, error) {
	rem, err := s.remittances.CreateRemittance(ctx, req.SaleID, req.Amount, req.Notes, req.RemittanceTime, req.Actor)
	if err != nil {
		return nil, err
	}
	return &RemittanceResult{Remittance: rem}, nil
}

func (s *appService) RemittanceSummary(ctx context.Context, saleID string) (*core.RemittanceSummary, error) {
	return s.remittances.Summary(ctx, saleID)
}

func (s *appService) RemittanceHistory(ctx context.Context, saleID string) ([]core.Remittance, error) {
	return s.remittances.History(ctx, saleID)
}

func (s *appService) ListCreditSales(ctx context.Context) ([]core.CreditSaleBalance, error) {
	return s.remittances.ListCreditSales(ctx)
}

func (s *appService) TodaySummary(ctx context.Context) (*core.TodaySummary, error) {
	return s.reporting.TodaySummary(ctx)
}

func (s *appService) DailyReport(ctx context.Context, day time.Time) (*core.DailyReport, error) {
	return s.reporting.DailyReport(ctx, day)
}

func (s *appService) CustomerRanking(ctx context.Context, from, to time.Time, limit int) ([]core.CustomerRank, error) {
	return s.reporting.CustomerRanking(ctx, from, to, limit)
}

func (s *appService) SpecUsage(ctx context.Context, from, to time.Time) ([]core.SpecUsage, error) {
	return s.reporting.SpecUsage(ctx, from, to)
}

func (s *appService) CreateSpec(ctx context.Context, input core.CreateSpecInput) (*core.Spec, error) {
	return s.catalog.CreateSpec(ctx, input)
}

func (s *appService) UpdateSpec(ctx context.Context, id int, input core.UpdateSpecInput) (*core.Spec, error) {
	return s.catalog.UpdateSpec(ctx, id, input)
}

func (s *appService) ListSpecs(ctx context.Context, includeInactive bool) ([]core.Spec, error) {
	return s.catalog.ListSpecs(ctx, includeInactive)
}

func (s *appService) CreateCustomer(ctx context.Context, input core.CreateCustomerInput) (*core.Customer, error) {
	return s.catalog.CreateCustomer(ctx, input)
}

func (s *appService) UpdateCustomer(ctx context.Context, id int, input core.UpdateCustomerInput) (*core.Customer, error) {
	return s.catalog.UpdateCustomer(ctx, id, input)
}

func (s *appService) ListCustomers(ctx context.Context, includeInactive bool) ([]core.Customer, error) {
	return s.catalog.ListCustomers(ctx, includeInactive)
}

func (s *appService) UpdateProduct(ctx context.Context, id int, input core.UpdateProductInput) (*core.Product, error) {
	return s.catalog.UpdateProduct(ctx, id, input)
}

func (s *appService) ListProducts(ctx context.Context, includeInactive bool) ([]core.Product, error) {
	return s.catalog.ListProducts(ctx, includeInactive)
}

func (s *appService) GetConfig(ctx context.Context) ([]core.ConfigEntry, error) {
	return s.config.List(ctx)
}

func (s *appService) SetConfig(ctx context.Context, key, value, actor string) (*core.ConfigEntry, error) {
	return s.config.Set(ctx, key, value, actor)
}

// InterpretOrder sends natural-language order text to the AI agent with the
// current catalogs and returns either a sale draft or a clarification request.
func (s *appService) InterpretOrder(ctx context.Context, text string) (*IntakeResult, error) {
	if s.agent == nil {
		return nil, fmt.Errorf("order interpretation is not configured, set OPENAI_API_KEY")
	}

	customers, err := s.fetchCustomerList(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch customer list: %w", err)
	}
	specs, err := s.fetchSpecCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spec catalog: %w", err)
	}
	products, err := s.fetchProductCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product catalog: %w", err)
	}

	response, err := s.agent.InterpretOrder(ctx, text, customers, specs, products)
	if err != nil {
		return nil, err
	}

	if response.IsClarificationRequest {
		return &IntakeResult{
			IsClarification:      true,
			ClarificationMessage: response.Clarification.Message,
		}, nil
	}
	return &IntakeResult{Draft: response.Draft}, nil
}

// ── private helpers ───────────────────────────────────────────────────────────

// fetchCustomerList formats active customers for the AI prompt.
func (s *appService) fetchCustomerList(ctx context.Context) (string, error) {
	customers, err := s.catalog.ListCustomers(ctx, false)
	if err != nil {
		return "", err
	}
	var lines []string
	for _, c := range customers {
		credit := "cash only"
		if c.CreditAllowed {
			credit = "credit allowed"
		}
		lines = append(lines, fmt.Sprintf("- %s (%s)", c.Name, credit))
	}
	return strings.Join(lines, "\n"), nil
}

// fetchSpecCatalog formats active specs for the AI prompt.
func (s *appService) fetchSpecCatalog(ctx context.Context) (string, error) {
	specs, err := s.catalog.ListSpecs(ctx, false)
	if err != nil {
		return "", err
	}
	var lines []string
	for _, sp := range specs {
		lines = append(lines, fmt.Sprintf("- %s: %s kg per box", sp.Name, sp.KgPerBox))
	}
	return strings.Join(lines, "\n"), nil
}

// fetchProductCatalog formats active products for the AI prompt.
func (s *appService) fetchProductCatalog(ctx context.Context) (string, error) {
	products, err := s.catalog.ListProducts(ctx, false)
	if err != nil {
		return "", err
	}
	var lines []string
	for _, p := range products {
		lines = append(lines, fmt.Sprintf("- %s: cash %s/kg, credit %s/kg", p.Name, p.CashPrice, p.CreditPrice))
	}
	return strings.Join(lines, "\n"), nil
}

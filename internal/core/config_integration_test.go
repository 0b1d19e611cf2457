package core_test

import (
	"context"
	"testing"

	"sales-ledger/internal/core"
)

func TestConfigService_DefaultOperatorName(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	config := core.NewConfigService(pool)

	// No default_operator row seeded: the built-in fallback applies.
	name, err := config.DefaultOperatorName(ctx)
	if err != nil {
		t.Fatalf("DefaultOperatorName failed: %v", err)
	}
	if name != core.DefaultOperator {
		t.Errorf("operator = %q, want fallback %q", name, core.DefaultOperator)
	}

	if _, err := config.Set(ctx, core.ConfigDefaultOperator, "Maria Flores", "test"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	name, err = config.DefaultOperatorName(ctx)
	if err != nil {
		t.Fatalf("DefaultOperatorName failed: %v", err)
	}
	if name != "Maria Flores" {
		t.Errorf("operator = %q, want configured Maria Flores", name)
	}

	// A blank value is as good as no value.
	if _, err := config.Set(ctx, core.ConfigDefaultOperator, "   ", "test"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	name, err = config.DefaultOperatorName(ctx)
	if err != nil {
		t.Fatalf("DefaultOperatorName failed: %v", err)
	}
	if name != core.DefaultOperator {
		t.Errorf("operator = %q, want fallback for blank value", name)
	}
}

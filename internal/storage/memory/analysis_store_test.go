package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/storage"
)

func analysisRecord(id, mint string, checkedAt int64) *domain.AnalysisRecord {
	return &domain.AnalysisRecord{
		ID:        id,
		Mint:      mint,
		Symbol:    "TEST",
		RiskScore: 40,
		RiskLevel: domain.RiskMedium,
		Signal:    domain.SignalHold,
		Factors: []domain.RiskFactor{
			{Name: "Liquidity", Status: domain.FactorPass, Weight: 0, Detail: "$500K"},
		},
		SignalReasons: []string{"Strong buy pressure"},
		CheckedAt:     checkedAt,
		CreatedAt:     checkedAt,
	}
}

func TestAnalysisStore_InsertAndGet(t *testing.T) {
	store := NewAnalysisStore()
	ctx := context.Background()

	r := analysisRecord("a1", "mint123", 1704067200000)
	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "a1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Mint != r.Mint {
		t.Errorf("Mint mismatch: got %s, want %s", got.Mint, r.Mint)
	}
	if len(got.Factors) != 1 || got.Factors[0].Detail != "$500K" {
		t.Errorf("Factors not preserved: %+v", got.Factors)
	}
}

func TestAnalysisStore_DuplicateKey(t *testing.T) {
	store := NewAnalysisStore()
	ctx := context.Background()

	r := analysisRecord("a1", "mint123", 1000)
	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.Insert(ctx, r); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestAnalysisStore_InvalidInput(t *testing.T) {
	store := NewAnalysisStore()
	ctx := context.Background()

	for _, r := range []*domain.AnalysisRecord{nil, {Mint: "m"}, {ID: "x"}} {
		if err := store.Insert(ctx, r); !errors.Is(err, storage.ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput for %+v, got %v", r, err)
		}
	}
}

func TestAnalysisStore_NotFound(t *testing.T) {
	store := NewAnalysisStore()
	if _, err := store.GetByID(context.Background(), "nonexistent"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestAnalysisStore_GetByMintNewestFirst(t *testing.T) {
	store := NewAnalysisStore()
	ctx := context.Background()

	store.Insert(ctx, analysisRecord("a1", "mintA", 1000))
	store.Insert(ctx, analysisRecord("a3", "mintA", 3000))
	store.Insert(ctx, analysisRecord("a2", "mintA", 2000))
	store.Insert(ctx, analysisRecord("b1", "mintB", 2500))

	got, err := store.GetByMint(ctx, "mintA", 0)
	if err != nil {
		t.Fatalf("GetByMint failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(got))
	}
	for i, want := range []string{"a3", "a2", "a1"} {
		if got[i].ID != want {
			t.Errorf("position %d: got %s, want %s", i, got[i].ID, want)
		}
	}

	limited, _ := store.GetByMint(ctx, "mintA", 2)
	if len(limited) != 2 || limited[0].ID != "a3" {
		t.Errorf("limit not applied: %+v", limited)
	}
}

func TestAnalysisStore_GetByTimeRange(t *testing.T) {
	store := NewAnalysisStore()
	ctx := context.Background()

	store.Insert(ctx, analysisRecord("a1", "mintA", 1000))
	store.Insert(ctx, analysisRecord("a2", "mintB", 2000))
	store.Insert(ctx, analysisRecord("a3", "mintC", 3000))

	got, err := store.GetByTimeRange(ctx, 1000, 2000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a1" || got[1].ID != "a2" {
		t.Errorf("unexpected range result: %+v", got)
	}
}

func TestAnalysisStore_ReturnsCopies(t *testing.T) {
	store := NewAnalysisStore()
	ctx := context.Background()

	r := analysisRecord("a1", "mintA", 1000)
	store.Insert(ctx, r)
	r.Factors[0].Detail = "mutated"

	got, _ := store.GetByID(ctx, "a1")
	if got.Factors[0].Detail != "$500K" {
		t.Error("stored record was mutated through the caller's slice")
	}
	got.SignalReasons[0] = "changed"

	again, _ := store.GetByID(ctx, "a1")
	if again.SignalReasons[0] != "Strong buy pressure" {
		t.Error("stored record was mutated through a returned slice")
	}
}

func TestAnalysisStore_Concurrent(t *testing.T) {
	store := NewAnalysisStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Insert(ctx, analysisRecord(string(rune('A'+i%26))+string(rune('a'+i/26)), "mintA", int64(i)))
			store.GetByMint(ctx, "mintA", 5)
		}(i)
	}
	wg.Wait()

	got, _ := store.GetByMint(ctx, "mintA", 0)
	if len(got) != 50 {
		t.Errorf("Expected 50 records, got %d", len(got))
	}
}

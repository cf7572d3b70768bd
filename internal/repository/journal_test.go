package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/fundvault/fundvault/internal/db"
	"github.com/fundvault/fundvault/internal/models"
	"github.com/fundvault/fundvault/internal/repository"
	"github.com/fundvault/fundvault/internal/testutil"
)

func TestJournalRepo(t *testing.T) {
	pool := testutil.SetupPool(t)
	ctx := context.Background()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	repo := repository.NewJournalRepo(pool)

	// RecordDeposit
	dep := &models.Deposit{
		Address:   "0x2000000000000000000000000000000000000002",
		AmountWei: "2500000000000000",
		USDValue:  "5000000000000000000",
		Timestamp: time.Now(),
	}
	recorded, err := repo.RecordDeposit(ctx, dep)
	if err != nil {
		t.Fatalf("RecordDeposit: %v", err)
	}
	if recorded.ID == 0 {
		t.Fatal("expected non-zero ID")
	}
	if recorded.AmountWei != dep.AmountWei {
		t.Fatalf("amount mismatch: got %s", recorded.AmountWei)
	}
	t.Logf("Recorded deposit: id=%d addr=%s wei=%s", recorded.ID, recorded.Address, recorded.AmountWei)

	// ListDeposits
	deposits, err := repo.ListDeposits(ctx, 10)
	if err != nil {
		t.Fatalf("ListDeposits: %v", err)
	}
	if len(deposits) == 0 {
		t.Fatal("expected deposits")
	}
	t.Logf("ListDeposits: %d rows", len(deposits))

	// ListDepositsByAddress
	byAddr, err := repo.ListDepositsByAddress(ctx, dep.Address, 10)
	if err != nil {
		t.Fatalf("ListDepositsByAddress: %v", err)
	}
	for _, d := range byAddr {
		if d.Address != dep.Address {
			t.Fatalf("unexpected address in filtered list: %s", d.Address)
		}
	}
	t.Logf("ListDepositsByAddress: %d rows", len(byAddr))

	// RecordWithdrawal
	wd := &models.Withdrawal{
		Owner:          "0x1000000000000000000000000000000000000001",
		SweptWei:       "2500000000000000",
		FundersCleared: 1,
		Timestamp:      time.Now(),
	}
	recordedWd, err := repo.RecordWithdrawal(ctx, wd)
	if err != nil {
		t.Fatalf("RecordWithdrawal: %v", err)
	}
	if recordedWd.ID == 0 {
		t.Fatal("expected non-zero withdrawal ID")
	}
	t.Logf("Recorded withdrawal: id=%d swept=%s", recordedWd.ID, recordedWd.SweptWei)

	// GetStats
	stats, err := repo.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TotalDeposits == 0 {
		t.Fatal("expected non-zero deposit count")
	}
	if stats.TotalWithdrawals == 0 {
		t.Fatal("expected non-zero withdrawal count")
	}
	t.Logf("Stats: deposits=%d unique=%d withdrawals=%d",
		stats.TotalDeposits, stats.UniqueFunders, stats.TotalWithdrawals)
}

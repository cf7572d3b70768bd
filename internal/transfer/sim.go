package transfer

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// SimSender is the paper-mode asset-transfer primitive. It keeps a
// simulated vault balance and per-address credit book in memory, so the
// full deposit/withdraw cycle can run without touching a chain.
type SimSender struct {
	mu       sync.Mutex
	vaultWei *big.Int
	credited map[common.Address]*big.Int
	log      *zap.Logger
}

func NewSimSender(initialWei *big.Int, log *zap.Logger) *SimSender {
	if initialWei == nil {
		initialWei = new(big.Int)
	}
	return &SimSender{
		vaultWei: new(big.Int).Set(initialWei),
		credited: make(map[common.Address]*big.Int),
		log:      log,
	}
}

// Credit records an inbound deposit into the simulated vault balance.
func (s *SimSender) Credit(amountWei *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vaultWei.Add(s.vaultWei, amountWei)
}

// Send debits the simulated vault balance and credits the destination.
// Fails without moving anything if the vault balance is insufficient.
func (s *SimSender) Send(_ context.Context, to common.Address, amountWei *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vaultWei.Cmp(amountWei) < 0 {
		return fmt.Errorf("insufficient simulated balance: have %s wei, need %s wei", s.vaultWei, amountWei)
	}

	s.vaultWei.Sub(s.vaultWei, amountWei)
	cur, ok := s.credited[to]
	if !ok {
		cur = new(big.Int)
		s.credited[to] = cur
	}
	cur.Add(cur, amountWei)

	s.log.Info("simulated transfer",
		zap.String("to", to.Hex()),
		zap.String("amountWei", amountWei.String()),
		zap.String("vaultRemainingWei", s.vaultWei.String()))
	return nil
}

// VaultBalance returns the simulated vault balance in wei.
func (s *SimSender) VaultBalance() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(big.Int).Set(s.vaultWei)
}

// CreditedTo returns the total simulated value delivered to addr.
func (s *SimSender) CreditedTo(addr common.Address) *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.credited[addr]; ok {
		return new(big.Int).Set(cur)
	}
	return new(big.Int)
}

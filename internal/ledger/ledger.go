package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

var (
	// ErrInsufficientValue means the deposit's USD value is below MinimumUSD.
	ErrInsufficientValue = errors.New("deposit below minimum USD value")
	// ErrNotOwner means a withdrawal was attempted by a non-owner address.
	ErrNotOwner = errors.New("caller is not the owner")
	// ErrTransferFailed means the withdrawal sweep could not be delivered.
	ErrTransferFailed = errors.New("asset transfer failed")
)

// MinimumUSD is the smallest accepted deposit value: 5 USD at 18 decimals.
// Fixed at construction, never mutated.
var MinimumUSD = new(big.Int).Mul(big.NewInt(5), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// Converter turns a wei amount into its 18-decimal USD value.
type Converter interface {
	ConvertToUSD(ctx context.Context, amountWei *big.Int) (*big.Int, error)
}

// Sender is the asset-transfer primitive used to sweep the pooled
// balance out of the vault. A non-nil error means no value moved.
type Sender interface {
	Send(ctx context.Context, to common.Address, amountWei *big.Int) error
}

// Ledger owns the funder balances, the ordered funder list and the
// pooled balance. Every operation runs to completion under one lock:
// an operation either commits all of its effects or none of them.
type Ledger struct {
	mu      sync.Mutex
	owner   common.Address
	conv    Converter
	sender  Sender
	funded  map[common.Address]*big.Int
	funders []common.Address // one entry per deposit, duplicates allowed
	pooled  *big.Int
	log     *zap.Logger
}

// New creates a ledger owned by owner. The owner cannot be changed
// afterwards.
func New(owner common.Address, conv Converter, sender Sender, log *zap.Logger) *Ledger {
	return &Ledger{
		owner:  owner,
		conv:   conv,
		sender: sender,
		funded: make(map[common.Address]*big.Int),
		pooled: new(big.Int),
		log:    log,
	}
}

// Deposit credits amountWei to from if its USD value meets MinimumUSD.
// Returns the USD value of the accepted deposit. On any error no state
// changes.
func (l *Ledger) Deposit(ctx context.Context, from common.Address, amountWei *big.Int) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amountWei == nil || amountWei.Sign() <= 0 {
		return nil, ErrInsufficientValue
	}

	usd, err := l.conv.ConvertToUSD(ctx, amountWei)
	if err != nil {
		return nil, fmt.Errorf("convert deposit: %w", err)
	}
	if usd.Cmp(MinimumUSD) < 0 {
		return nil, fmt.Errorf("%w: %s USD18 < %s USD18", ErrInsufficientValue, usd, MinimumUSD)
	}

	cur, ok := l.funded[from]
	if !ok {
		cur = new(big.Int)
		l.funded[from] = cur
	}
	cur.Add(cur, amountWei)
	l.funders = append(l.funders, from)
	l.pooled.Add(l.pooled, amountWei)

	l.log.Info("deposit accepted",
		zap.String("from", from.Hex()),
		zap.String("amountWei", amountWei.String()),
		zap.String("usd18", usd.String()))

	return usd, nil
}

// Withdraw sweeps the entire pooled balance to caller, which must be the
// owner. The transfer runs first; funder balances and the funder list
// are reset only after it succeeds, so a failed transfer leaves the
// ledger untouched.
func (l *Ledger) Withdraw(ctx context.Context, caller common.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return nil, ErrNotOwner
	}

	swept := new(big.Int).Set(l.pooled)
	if err := l.sender.Send(ctx, caller, swept); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	for _, addr := range l.funders {
		if bal, ok := l.funded[addr]; ok {
			bal.SetInt64(0)
		}
	}
	l.funders = nil
	l.pooled.SetInt64(0)

	l.log.Info("withdrawal complete",
		zap.String("owner", caller.Hex()),
		zap.String("sweptWei", swept.String()))

	return swept, nil
}

// Owner returns the address fixed at construction.
func (l *Ledger) Owner() common.Address { return l.owner }

// FundedAmount returns the cumulative deposited amount for addr, zero if
// addr never deposited.
func (l *Ledger) FundedAmount(addr common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if bal, ok := l.funded[addr]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// FunderAt returns the funder list entry at index i.
func (l *Ledger) FunderAt(i int) (common.Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 || i >= len(l.funders) {
		return common.Address{}, fmt.Errorf("funder index %d out of range [0,%d)", i, len(l.funders))
	}
	return l.funders[i], nil
}

// Funders returns a copy of the funder list in insertion order. The list
// holds one entry per deposit call, not per unique depositor.
func (l *Ledger) Funders() []common.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]common.Address, len(l.funders))
	copy(out, l.funders)
	return out
}

// Pooled returns the current pooled balance in wei.
func (l *Ledger) Pooled() *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.pooled)
}

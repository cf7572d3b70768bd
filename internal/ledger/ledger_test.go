package ledger

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	ownerAddr = common.HexToAddress("0x1000000000000000000000000000000000000001")
	addrX     = common.HexToAddress("0x2000000000000000000000000000000000000002")
	addrY     = common.HexToAddress("0x3000000000000000000000000000000000000003")

	wad = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
)

// fixedConverter prices deposits at a constant USD-per-ETH rate.
type fixedConverter struct {
	price *big.Int // 18-decimal USD per ETH
	err   error
}

func (c *fixedConverter) ConvertToUSD(_ context.Context, amountWei *big.Int) (*big.Int, error) {
	if c.err != nil {
		return nil, c.err
	}
	usd := new(big.Int).Mul(c.price, amountWei)
	return usd.Quo(usd, wad), nil
}

type recordingSender struct {
	sent map[common.Address]*big.Int
	err  error
}

func newRecordingSender() *recordingSender {
	return &recordingSender{sent: make(map[common.Address]*big.Int)}
}

func (s *recordingSender) Send(_ context.Context, to common.Address, amountWei *big.Int) error {
	if s.err != nil {
		return s.err
	}
	cur, ok := s.sent[to]
	if !ok {
		cur = new(big.Int)
		s.sent[to] = cur
	}
	cur.Add(cur, amountWei)
	return nil
}

func at2000() *fixedConverter {
	return &fixedConverter{price: new(big.Int).Mul(big.NewInt(2000), wad)}
}

func newTestLedger(sender Sender) *Ledger {
	return New(ownerAddr, at2000(), sender, zap.NewNop())
}

// 2.5e15 wei is worth exactly 5 USD at 2000 USD/ETH.
var boundaryWei = big.NewInt(2_500_000_000_000_000)

func TestDeposit_AtThreshold(t *testing.T) {
	l := newTestLedger(newRecordingSender())

	usd, err := l.Deposit(context.Background(), addrX, boundaryWei)
	require.NoError(t, err)
	require.Equal(t, new(big.Int).Mul(big.NewInt(5), wad), usd)
	require.Equal(t, boundaryWei, l.FundedAmount(addrX))
	require.Equal(t, []common.Address{addrX}, l.Funders())
	require.Equal(t, boundaryWei, l.Pooled())
}

func TestDeposit_OneWeiBelowThreshold(t *testing.T) {
	l := newTestLedger(newRecordingSender())

	_, err := l.Deposit(context.Background(), addrX, new(big.Int).Sub(boundaryWei, big.NewInt(1)))
	require.ErrorIs(t, err, ErrInsufficientValue)
	require.Zero(t, l.FundedAmount(addrX).Sign())
	require.Empty(t, l.Funders())
	require.Zero(t, l.Pooled().Sign())
}

func TestDeposit_ZeroAndNilAmounts(t *testing.T) {
	l := newTestLedger(newRecordingSender())
	ctx := context.Background()

	_, err := l.Deposit(ctx, addrX, big.NewInt(0))
	require.ErrorIs(t, err, ErrInsufficientValue)

	_, err = l.Deposit(ctx, addrX, nil)
	require.ErrorIs(t, err, ErrInsufficientValue)

	_, err = l.Deposit(ctx, addrX, big.NewInt(-5))
	require.ErrorIs(t, err, ErrInsufficientValue)
}

func TestDeposit_ConverterErrorRejectsDeposit(t *testing.T) {
	convErr := errors.New("feed unavailable")
	l := New(ownerAddr, &fixedConverter{err: convErr}, newRecordingSender(), zap.NewNop())

	_, err := l.Deposit(context.Background(), addrX, new(big.Int).Mul(big.NewInt(1), wad))
	require.ErrorIs(t, err, convErr)
	require.Empty(t, l.Funders())
	require.Zero(t, l.Pooled().Sign())
}

func TestDeposit_AccumulatesAndAppendsPerCall(t *testing.T) {
	l := newTestLedger(newRecordingSender())
	ctx := context.Background()

	a1 := new(big.Int).Mul(big.NewInt(1), wad)
	a2 := new(big.Int).Mul(big.NewInt(2), wad)

	_, err := l.Deposit(ctx, addrX, a1)
	require.NoError(t, err)
	_, err = l.Deposit(ctx, addrX, a2)
	require.NoError(t, err)

	require.Equal(t, new(big.Int).Mul(big.NewInt(3), wad), l.FundedAmount(addrX))
	// One list entry per deposit call, no deduplication.
	require.Equal(t, []common.Address{addrX, addrX}, l.Funders())
}

func TestWithdraw_NonOwnerRejected(t *testing.T) {
	sender := newRecordingSender()
	l := newTestLedger(sender)
	ctx := context.Background()

	_, err := l.Deposit(ctx, addrX, new(big.Int).Mul(big.NewInt(1), wad))
	require.NoError(t, err)

	_, err = l.Withdraw(ctx, addrX)
	require.ErrorIs(t, err, ErrNotOwner)

	// Nothing moved, nothing reset.
	require.Empty(t, sender.sent)
	require.Equal(t, new(big.Int).Mul(big.NewInt(1), wad), l.FundedAmount(addrX))
	require.Len(t, l.Funders(), 1)
}

func TestWithdraw_SweepsAndResets(t *testing.T) {
	sender := newRecordingSender()
	l := newTestLedger(sender)
	ctx := context.Background()

	a1 := new(big.Int).Mul(big.NewInt(1), wad)
	a2 := new(big.Int).Mul(big.NewInt(2), wad)
	a3 := new(big.Int).Mul(big.NewInt(3), wad)

	_, err := l.Deposit(ctx, addrX, a1)
	require.NoError(t, err)
	_, err = l.Deposit(ctx, addrY, a2)
	require.NoError(t, err)
	_, err = l.Deposit(ctx, addrX, a3)
	require.NoError(t, err)

	swept, err := l.Withdraw(ctx, ownerAddr)
	require.NoError(t, err)

	total := new(big.Int).Mul(big.NewInt(6), wad)
	require.Equal(t, total, swept)
	require.Equal(t, total, sender.sent[ownerAddr])
	require.Zero(t, l.FundedAmount(addrX).Sign())
	require.Zero(t, l.FundedAmount(addrY).Sign())
	require.Empty(t, l.Funders())
	require.Zero(t, l.Pooled().Sign())
}

func TestWithdraw_TransferFailureLeavesStateIntact(t *testing.T) {
	sender := newRecordingSender()
	sender.err = errors.New("rpc timeout")
	l := newTestLedger(sender)
	ctx := context.Background()

	amount := new(big.Int).Mul(big.NewInt(4), wad)
	_, err := l.Deposit(ctx, addrX, amount)
	require.NoError(t, err)

	_, err = l.Withdraw(ctx, ownerAddr)
	require.ErrorIs(t, err, ErrTransferFailed)

	require.Equal(t, amount, l.FundedAmount(addrX))
	require.Equal(t, []common.Address{addrX}, l.Funders())
	require.Equal(t, amount, l.Pooled())

	// Retry after the sender recovers commits everything.
	sender.err = nil
	swept, err := l.Withdraw(ctx, ownerAddr)
	require.NoError(t, err)
	require.Equal(t, amount, swept)
	require.Empty(t, l.Funders())
}

func TestWithdraw_EmptyLedger(t *testing.T) {
	sender := newRecordingSender()
	l := newTestLedger(sender)

	swept, err := l.Withdraw(context.Background(), ownerAddr)
	require.NoError(t, err)
	require.Zero(t, swept.Sign())
}

func TestFunderAt(t *testing.T) {
	l := newTestLedger(newRecordingSender())
	ctx := context.Background()

	_, err := l.Deposit(ctx, addrX, new(big.Int).Mul(big.NewInt(1), wad))
	require.NoError(t, err)
	_, err = l.Deposit(ctx, addrY, new(big.Int).Mul(big.NewInt(1), wad))
	require.NoError(t, err)

	got, err := l.FunderAt(0)
	require.NoError(t, err)
	require.Equal(t, addrX, got)

	got, err = l.FunderAt(1)
	require.NoError(t, err)
	require.Equal(t, addrY, got)

	_, err = l.FunderAt(2)
	require.Error(t, err)
	_, err = l.FunderAt(-1)
	require.Error(t, err)
}

func TestOwnerAndMinimumAreFixed(t *testing.T) {
	l := newTestLedger(newRecordingSender())
	require.Equal(t, ownerAddr, l.Owner())
	require.Equal(t, "5000000000000000000", MinimumUSD.String())
}

// Getter results must be copies: mutating them must not touch ledger state.
func TestGettersReturnCopies(t *testing.T) {
	l := newTestLedger(newRecordingSender())
	ctx := context.Background()

	amount := new(big.Int).Mul(big.NewInt(1), wad)
	_, err := l.Deposit(ctx, addrX, amount)
	require.NoError(t, err)

	l.FundedAmount(addrX).SetInt64(0)
	l.Pooled().SetInt64(0)
	funders := l.Funders()
	funders[0] = addrY

	require.Equal(t, amount, l.FundedAmount(addrX))
	require.Equal(t, amount, l.Pooled())
	require.Equal(t, []common.Address{addrX}, l.Funders())
}

package transfer

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var dest = common.HexToAddress("0x4000000000000000000000000000000000000004")

func TestSimSender_CreditAndSend(t *testing.T) {
	s := NewSimSender(nil, zap.NewNop())
	ctx := context.Background()

	s.Credit(big.NewInt(700))
	s.Credit(big.NewInt(300))
	require.Equal(t, big.NewInt(1000), s.VaultBalance())

	require.NoError(t, s.Send(ctx, dest, big.NewInt(600)))
	require.Equal(t, big.NewInt(400), s.VaultBalance())
	require.Equal(t, big.NewInt(600), s.CreditedTo(dest))
}

func TestSimSender_InsufficientBalance(t *testing.T) {
	s := NewSimSender(big.NewInt(100), zap.NewNop())

	err := s.Send(context.Background(), dest, big.NewInt(101))
	require.Error(t, err)

	// A failed send moves nothing.
	require.Equal(t, big.NewInt(100), s.VaultBalance())
	require.Zero(t, s.CreditedTo(dest).Sign())
}

func TestSimSender_ZeroSend(t *testing.T) {
	s := NewSimSender(nil, zap.NewNop())
	require.NoError(t, s.Send(context.Background(), dest, big.NewInt(0)))
	require.Zero(t, s.VaultBalance().Sign())
}

package transfer

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/fundvault/fundvault/internal/ethereum"
)

// EthSender delivers native value transfers by signing and broadcasting
// transactions from the vault wallet.
type EthSender struct {
	client *ethereum.Client
	log    *zap.Logger
}

func NewEthSender(client *ethereum.Client, log *zap.Logger) *EthSender {
	return &EthSender{client: client, log: log}
}

func (s *EthSender) Send(ctx context.Context, to common.Address, amountWei *big.Int) error {
	if amountWei.Sign() == 0 {
		return nil
	}
	txHash, err := s.client.SendETH(ctx, to, amountWei)
	if err != nil {
		return fmt.Errorf("send %s wei to %s: %w", amountWei, to.Hex(), err)
	}
	s.log.Info("transfer broadcast",
		zap.String("to", to.Hex()),
		zap.String("amountWei", amountWei.String()),
		zap.String("tx", txHash))
	return nil
}

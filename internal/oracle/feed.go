package oracle

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fundvault/fundvault/internal/ethereum"
)

// Round is one price-feed reading. Only Answer is consumed by the
// adapter; the remaining fields are returned by the aggregator and kept
// for completeness.
type Round struct {
	RoundID         *big.Int
	Answer          *big.Int // signed, feed-native decimals
	StartedAt       *big.Int
	UpdatedAt       *big.Int
	AnsweredInRound *big.Int
}

// Feed is the read-only price oracle consumed by the Adapter.
type Feed interface {
	LatestRound(ctx context.Context) (Round, error)
	Version(ctx context.Context) (*big.Int, error)
}

// Minimal aggregator ABI — only the methods we call.

func mustAggregatorABI() *strings.Reader {
	return strings.NewReader(`[
		{
			"name": "latestRoundData",
			"type": "function",
			"stateMutability": "view",
			"inputs": [],
			"outputs": [
				{"name": "roundId",         "type": "uint80"},
				{"name": "answer",          "type": "int256"},
				{"name": "startedAt",       "type": "uint256"},
				{"name": "updatedAt",       "type": "uint256"},
				{"name": "answeredInRound", "type": "uint80"}
			]
		},
		{
			"name": "version",
			"type": "function",
			"stateMutability": "view",
			"inputs": [],
			"outputs": [{"name": "", "type": "uint256"}]
		}
	]`)
}

// ChainlinkFeed reads an on-chain AggregatorV3-style contract through the
// vault's RPC client.
type ChainlinkFeed struct {
	client *ethereum.Client
	addr   common.Address
	abi    abi.ABI
}

func NewChainlinkFeed(client *ethereum.Client, feedAddr string) (*ChainlinkFeed, error) {
	parsed, err := abi.JSON(mustAggregatorABI())
	if err != nil {
		return nil, fmt.Errorf("parse aggregator ABI: %w", err)
	}
	return &ChainlinkFeed{
		client: client,
		addr:   common.HexToAddress(feedAddr),
		abi:    parsed,
	}, nil
}

func (f *ChainlinkFeed) LatestRound(ctx context.Context) (Round, error) {
	data, err := f.abi.Pack("latestRoundData")
	if err != nil {
		return Round{}, err
	}
	raw, err := f.client.CallContract(ctx, f.addr, data)
	if err != nil {
		return Round{}, fmt.Errorf("latestRoundData call: %w", err)
	}

	vals, err := f.abi.Unpack("latestRoundData", raw)
	if err != nil {
		return Round{}, fmt.Errorf("unpack latestRoundData: %w", err)
	}
	if len(vals) != 5 {
		return Round{}, fmt.Errorf("unexpected latestRoundData arity: %d", len(vals))
	}

	return Round{
		RoundID:         vals[0].(*big.Int),
		Answer:          vals[1].(*big.Int),
		StartedAt:       vals[2].(*big.Int),
		UpdatedAt:       vals[3].(*big.Int),
		AnsweredInRound: vals[4].(*big.Int),
	}, nil
}

func (f *ChainlinkFeed) Version(ctx context.Context) (*big.Int, error) {
	data, err := f.abi.Pack("version")
	if err != nil {
		return nil, err
	}
	raw, err := f.client.CallContract(ctx, f.addr, data)
	if err != nil {
		return nil, fmt.Errorf("version call: %w", err)
	}

	vals, err := f.abi.Unpack("version", raw)
	if err != nil {
		return nil, fmt.Errorf("unpack version: %w", err)
	}
	if len(vals) != 1 {
		return nil, fmt.Errorf("unexpected version arity: %d", len(vals))
	}
	return vals[0].(*big.Int), nil
}

package oracle

import (
	"context"
	"errors"
	"fmt"
	"math/big"
)

// ErrInvalidPriceReading means the feed returned a negative answer.
// Reinterpreting a negative int256 as unsigned would credit deposits at a
// garbage price, so the reading is rejected outright.
var ErrInvalidPriceReading = errors.New("oracle returned invalid price reading")

// DefaultFeedDecimals is the native scale of Chainlink USD feeds.
const DefaultFeedDecimals = 8

var wad = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil) // 10^18

// Adapter normalizes feed readings to an 18-decimal USD price and
// converts wei amounts into 18-decimal USD values. It isolates the rest
// of the vault from the feed's native decimal scale.
type Adapter struct {
	feed  Feed
	scale *big.Int // 10^(18 - feed decimals)
}

func NewAdapter(feed Feed, feedDecimals int) (*Adapter, error) {
	if feedDecimals < 0 || feedDecimals > 18 {
		return nil, fmt.Errorf("unsupported feed decimals: %d", feedDecimals)
	}
	return &Adapter{
		feed:  feed,
		scale: new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(18-feedDecimals)), nil),
	}, nil
}

// CurrentUSDPrice returns the latest USD-per-ETH price rescaled to 18
// decimals.
func (a *Adapter) CurrentUSDPrice(ctx context.Context) (*big.Int, error) {
	round, err := a.feed.LatestRound(ctx)
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	if round.Answer == nil || round.Answer.Sign() < 0 {
		return nil, ErrInvalidPriceReading
	}
	return new(big.Int).Mul(round.Answer, a.scale), nil
}

// ConvertToUSD computes price * amountWei / 10^18: the 18-decimal USD
// value of an 18-decimal native amount. Division truncates; no rounding.
func (a *Adapter) ConvertToUSD(ctx context.Context, amountWei *big.Int) (*big.Int, error) {
	price, err := a.CurrentUSDPrice(ctx)
	if err != nil {
		return nil, err
	}
	usd := new(big.Int).Mul(price, amountWei)
	return usd.Quo(usd, wad), nil
}

// Version passes through the feed's version identifier.
func (a *Adapter) Version(ctx context.Context) (*big.Int, error) {
	return a.feed.Version(ctx)
}

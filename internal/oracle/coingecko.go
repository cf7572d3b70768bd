package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fundvault/fundvault/internal/httputil"
)

const coingeckoURL = "https://api.coingecko.com/api/v3/simple/price?ids=ethereum&vs_currencies=usd"

// coingeckoVersion distinguishes this feed from on-chain aggregators in
// the version read.
var coingeckoVersion = big.NewInt(1)

// CoinGeckoFeed is an HTTP-backed Feed for deployments without chain
// access. Readings are quantized to the standard 8-decimal feed scale;
// round ids are the fetch timestamps, which keeps them increasing.
type CoinGeckoFeed struct {
	url        string
	httpClient *http.Client
	retry      httputil.RetryConfig
	log        *zap.Logger
}

func NewCoinGeckoFeed(log *zap.Logger) *CoinGeckoFeed {
	return &CoinGeckoFeed{
		url:        coingeckoURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			MaxDelay:    10 * time.Second,
		},
		log: log,
	}
}

func (f *CoinGeckoFeed) LatestRound(ctx context.Context) (Round, error) {
	resp, err := httputil.Do(ctx, f.httpClient, f.retry, f.log, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	})
	if err != nil {
		return Round{}, fmt.Errorf("coingecko fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Round{}, fmt.Errorf("coingecko returned status %d", resp.StatusCode)
	}

	var data struct {
		Ethereum struct {
			USD float64 `json:"usd"`
		} `json:"ethereum"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Round{}, fmt.Errorf("decode: %w", err)
	}

	now := big.NewInt(time.Now().Unix())
	return Round{
		RoundID:         now,
		Answer:          usdToAnswer(data.Ethereum.USD),
		StartedAt:       now,
		UpdatedAt:       now,
		AnsweredInRound: now,
	}, nil
}

func (f *CoinGeckoFeed) Version(_ context.Context) (*big.Int, error) {
	return coingeckoVersion, nil
}

// usdToAnswer converts a float USD price to the 8-decimal feed scale.
// A non-positive price maps to a negative answer so the adapter rejects
// it as an invalid reading.
func usdToAnswer(usd float64) *big.Int {
	if usd <= 0 {
		return big.NewInt(-1)
	}
	return decimal.NewFromFloat(usd).Shift(8).Truncate(0).BigInt()
}

package oracle

import (
	"context"
	"math/big"
	"sync"
	"time"
)

// StaticFeed serves a fixed price for paper deployments that have no RPC
// endpoint configured. The round id increments per read so the readings
// still look like a live feed.
type StaticFeed struct {
	mu     sync.Mutex
	answer *big.Int // feed-native decimals
	round  int64
}

func NewStaticFeed(answer *big.Int) *StaticFeed {
	return &StaticFeed{answer: new(big.Int).Set(answer)}
}

func (f *StaticFeed) LatestRound(_ context.Context) (Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.round++
	now := big.NewInt(time.Now().Unix())
	return Round{
		RoundID:         big.NewInt(f.round),
		Answer:          new(big.Int).Set(f.answer),
		StartedAt:       now,
		UpdatedAt:       now,
		AnsweredInRound: big.NewInt(f.round),
	}, nil
}

func (f *StaticFeed) Version(_ context.Context) (*big.Int, error) {
	return big.NewInt(0), nil
}

// SetAnswer replaces the served price.
func (f *StaticFeed) SetAnswer(answer *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answer.Set(answer)
}

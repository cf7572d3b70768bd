package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fundvault/fundvault/internal/httputil"
)

// Sender posts vault events to a Slack- or Discord-style webhook.
type Sender struct {
	webhookURL  string
	serviceName string
	httpClient  *http.Client
	retry       httputil.RetryConfig
	log         *zap.Logger
}

func NewSender(webhookURL, serviceName string, log *zap.Logger) *Sender {
	if serviceName == "" {
		serviceName = "FundVault"
	}
	return &Sender{
		webhookURL:  webhookURL,
		serviceName: serviceName,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    5 * time.Second,
		},
		log: log,
	}
}

func (s *Sender) Enabled() bool {
	return s.webhookURL != ""
}

// DepositAccepted announces an accepted deposit.
func (s *Sender) DepositAccepted(from common.Address, amountWei, usd18 *big.Int) {
	s.send(fmt.Sprintf("deposit accepted: %s ETH (%s USD) from %s",
		decimal.NewFromBigInt(amountWei, -18), decimal.NewFromBigInt(usd18, -18), from.Hex()))
}

// WithdrawalComplete announces a completed owner sweep.
func (s *Sender) WithdrawalComplete(owner common.Address, sweptWei *big.Int, fundersCleared int) {
	s.send(fmt.Sprintf("withdrawal complete: %s ETH swept to %s, %d funder entries cleared",
		decimal.NewFromBigInt(sweptWei, -18), owner.Hex(), fundersCleared))
}

func (s *Sender) send(msg string) {
	formatted := fmt.Sprintf("[%s] %s", s.serviceName, msg)
	s.log.Info("notification", zap.String("message", formatted))

	if s.webhookURL == "" {
		return
	}

	body, err := json.Marshal(s.formatPayload(formatted))
	if err != nil {
		s.log.Error("marshal notification payload", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := httputil.Do(ctx, s.httpClient, s.retry, s.log, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		s.log.Error("send notification", zap.Error(err))
		return
	}
	resp.Body.Close()
}

func (s *Sender) formatPayload(msg string) map[string]string {
	if strings.Contains(s.webhookURL, "discord") {
		return map[string]string{
			"content":  msg,
			"username": s.serviceName,
		}
	}
	return map[string]string{
		"text":     fmt.Sprintf("`%s`", msg),
		"username": s.serviceName,
	}
}

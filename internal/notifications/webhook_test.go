package notifications

import (
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

var funder = common.HexToAddress("0x2000000000000000000000000000000000000002")

func TestSender_Disabled(t *testing.T) {
	s := NewSender("", "FundVault", zap.NewNop())
	if s.Enabled() {
		t.Fatal("sender with empty URL should be disabled")
	}
	// Must not panic or block.
	s.DepositAccepted(funder, big.NewInt(1), big.NewInt(1))
}

func TestSender_DepositAccepted_SlackPayload(t *testing.T) {
	var payload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("unmarshal payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSender(srv.URL, "FundVault", zap.NewNop())
	oneETH, _ := new(big.Int).SetString("1000000000000000000", 10)
	twoThousandUSD, _ := new(big.Int).SetString("2000000000000000000000", 10)
	s.DepositAccepted(funder, oneETH, twoThousandUSD)

	text, ok := payload["text"]
	if !ok {
		t.Fatalf("expected slack-style payload, got %v", payload)
	}
	if !strings.Contains(text, "1 ETH") || !strings.Contains(text, "2000 USD") {
		t.Fatalf("unexpected message: %s", text)
	}
	if !strings.Contains(text, funder.Hex()) {
		t.Fatalf("message missing funder address: %s", text)
	}
}

func TestSender_WithdrawalComplete_DiscordPayload(t *testing.T) {
	received := make(chan map[string]string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		received <- payload
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	// URL must contain "discord" to select the discord payload shape.
	s := NewSender(srv.URL+"/discord/webhook", "FundVault", zap.NewNop())
	s.WithdrawalComplete(funder, big.NewInt(0), 3)

	payload := <-received
	if _, ok := payload["content"]; !ok {
		t.Fatalf("expected discord-style payload, got %v", payload)
	}
	if payload["username"] != "FundVault" {
		t.Fatalf("unexpected username: %s", payload["username"])
	}
}

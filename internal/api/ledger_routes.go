package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fundvault/fundvault/internal/ledger"
	"github.com/fundvault/fundvault/internal/models"
	"github.com/fundvault/fundvault/internal/oracle"
)

type fundRequest struct {
	Address   string `json:"address"`
	AmountWei string `json:"amountWei"`
}

type fundResponse struct {
	Address   string `json:"address"`
	AmountWei string `json:"amountWei"`
	USDValue  string `json:"usdValue"`
	USD       string `json:"usd"`
}

type withdrawRequest struct {
	Address string `json:"address"`
}

type withdrawResponse struct {
	Owner          string `json:"owner"`
	SweptWei       string `json:"sweptWei"`
	SweptETH       string `json:"sweptEth"`
	FundersCleared int    `json:"fundersCleared"`
}

func (s *Server) handleFund(w http.ResponseWriter, r *http.Request) {
	var req fundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.fund(w, r, req)
}

func (s *Server) fund(w http.ResponseWriter, r *http.Request, req fundRequest) {
	from, err := parseAddress(req.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := parseWei(req.AmountWei)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	usd, err := s.vault.Deposit(r.Context(), from, amount)
	switch {
	case err == nil:
	case errors.Is(err, ledger.ErrInsufficientValue):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, oracle.ErrInvalidPriceReading):
		writeError(w, http.StatusBadGateway, "oracle returned an invalid price reading")
		return
	default:
		s.log.Error("deposit failed", zap.String("from", from.Hex()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "deposit failed")
		return
	}

	if s.credit != nil {
		s.credit.Credit(amount)
	}
	if s.journal != nil {
		_, jerr := s.journal.RecordDeposit(r.Context(), &models.Deposit{
			Address:   from.Hex(),
			AmountWei: amount.String(),
			USDValue:  usd.String(),
			Timestamp: time.Now().UTC(),
		})
		if jerr != nil {
			s.log.Error("journal deposit", zap.Error(jerr))
		}
	}
	if s.notify != nil {
		s.notify.DepositAccepted(from, amount, usd)
	}

	writeJSON(w, http.StatusOK, fundResponse{
		Address:   from.Hex(),
		AmountWei: amount.String(),
		USDValue:  usd.String(),
		USD:       decimal.NewFromBigInt(usd, -18).String(),
	})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	caller, err := parseAddress(req.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cleared := len(s.vault.Funders())
	swept, err := s.vault.Withdraw(r.Context(), caller)
	switch {
	case err == nil:
	case errors.Is(err, ledger.ErrNotOwner):
		writeError(w, http.StatusForbidden, "caller is not the owner")
		return
	case errors.Is(err, ledger.ErrTransferFailed):
		s.log.Error("withdrawal transfer failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "asset transfer failed, ledger unchanged")
		return
	default:
		s.log.Error("withdrawal failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "withdrawal failed")
		return
	}

	if s.journal != nil {
		_, jerr := s.journal.RecordWithdrawal(r.Context(), &models.Withdrawal{
			Owner:          caller.Hex(),
			SweptWei:       swept.String(),
			FundersCleared: cleared,
			Timestamp:      time.Now().UTC(),
		})
		if jerr != nil {
			s.log.Error("journal withdrawal", zap.Error(jerr))
		}
	}
	if s.notify != nil {
		s.notify.WithdrawalComplete(caller, swept, cleared)
	}

	writeJSON(w, http.StatusOK, withdrawResponse{
		Owner:          caller.Hex(),
		SweptWei:       swept.String(),
		SweptETH:       decimal.NewFromBigInt(swept, -18).String(),
		FundersCleared: cleared,
	})
}

// handleFallback routes any unmatched POST carrying a fund body to the
// deposit path, so the minimum-value rule applies regardless of how
// value arrives. Everything else is a 404.
func (s *Server) handleFallback(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req fundRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Address != "" && req.AmountWei != "" {
			s.fund(w, r, req)
			return
		}
		writeError(w, http.StatusBadRequest, "unrecognized operation; POST bodies with address and amountWei are treated as deposits")
		return
	}
	writeError(w, http.StatusNotFound, "unknown route")
}

func (s *Server) handleOwner(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"owner": s.vault.Owner().Hex()})
}

func (s *Server) handleMinimum(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"minimumUsd18": ledger.MinimumUSD.String(),
		"minimumUsd":   decimal.NewFromBigInt(ledger.MinimumUSD, -18).String(),
	})
}

func (s *Server) handlePooled(w http.ResponseWriter, _ *http.Request) {
	pooled := s.vault.Pooled()
	writeJSON(w, http.StatusOK, map[string]string{
		"pooledWei": pooled.String(),
		"pooledEth": decimal.NewFromBigInt(pooled, -18).String(),
	})
}

func (s *Server) handleFunders(w http.ResponseWriter, _ *http.Request) {
	funders := s.vault.Funders()
	out := make([]string, len(funders))
	for i, f := range funders {
		out[i] = f.Hex()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(out),
		"funders": out,
	})
}

func (s *Server) handleFunderAt(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index")
		return
	}
	addr, err := s.vault.FunderAt(idx)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"index":  idx,
		"funder": addr.Hex(),
	})
}

func (s *Server) handleFundedAmount(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(r.PathValue("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	funded := s.vault.FundedAmount(addr)
	writeJSON(w, http.StatusOK, map[string]string{
		"address":   addr.Hex(),
		"fundedWei": funded.String(),
		"fundedEth": decimal.NewFromBigInt(funded, -18).String(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	v, err := s.oracle.Version(r.Context())
	if err != nil {
		s.log.Error("oracle version", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to read oracle version")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"version": v.String()})
}

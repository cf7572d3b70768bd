package api

import (
	"net/http"

	"go.uber.org/zap"
)

func (s *Server) handleDeposits(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusNotFound, "deposit journal disabled")
		return
	}

	limit := parseLimit(r, 100)

	if addr := r.URL.Query().Get("address"); addr != "" {
		parsed, err := parseAddress(addr)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		deposits, err := s.journal.ListDepositsByAddress(r.Context(), parsed.Hex(), limit)
		if err != nil {
			s.log.Error("list deposits by address", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to fetch deposits")
			return
		}
		writeJSON(w, http.StatusOK, deposits)
		return
	}

	deposits, err := s.journal.ListDeposits(r.Context(), limit)
	if err != nil {
		s.log.Error("list deposits", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch deposits")
		return
	}
	writeJSON(w, http.StatusOK, deposits)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusNotFound, "deposit journal disabled")
		return
	}

	stats, err := s.journal.GetStats(r.Context())
	if err != nil {
		s.log.Error("journal stats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

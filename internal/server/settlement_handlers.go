package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/divvyapp/divvy/internal/middleware"
	"github.com/divvyapp/divvy/internal/service"
)

type settlementMutationResponse struct {
	Settlement settlementResponse `json:"settlement"`
	Balance    balanceResponse    `json:"balance"`
}

func (s *Server) handleCreateSettlement(w http.ResponseWriter, r *http.Request) {
	var req settlementRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	in := service.SettlementInput{
		GroupID:    chi.URLParam(r, "groupID"),
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
		Amount:     req.Amount,
		Note:       req.Note,
	}

	settlement, bal, err := s.settlements.CreateSettlement(r.Context(), middleware.GetUserID(r.Context()), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, settlementMutationResponse{
		Settlement: toSettlementResponse(settlement),
		Balance:    toBalanceResponse(bal),
	})
}

func (s *Server) handleListSettlements(w http.ResponseWriter, r *http.Request) {
	settlements, err := s.settlements.ListSettlements(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "groupID"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]settlementResponse, len(settlements))
	for i, st := range settlements {
		resp[i] = toSettlementResponse(st)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateSettlement(w http.ResponseWriter, r *http.Request) {
	var req settlementRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	// The group is pinned server-side.
	in := service.SettlementInput{
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
		Amount:     req.Amount,
		Note:       req.Note,
	}

	settlement, bal, err := s.settlements.UpdateSettlement(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "settlementID"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settlementMutationResponse{
		Settlement: toSettlementResponse(settlement),
		Balance:    toBalanceResponse(bal),
	})
}

func (s *Server) handleDeleteSettlement(w http.ResponseWriter, r *http.Request) {
	bal, err := s.settlements.DeleteSettlement(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "settlementID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]balanceResponse{"balance": toBalanceResponse(bal)})
}

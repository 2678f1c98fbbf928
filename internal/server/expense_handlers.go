package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/divvyapp/divvy/internal/middleware"
)

// expenseMutationResponse pairs the mutated expense with the balance
// rewritten in the same transaction.
type expenseMutationResponse struct {
	Expense expenseResponse `json:"expense"`
	Balance balanceResponse `json:"balance"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	in, err := toExpenseInput(chi.URLParam(r, "groupID"), req)
	if err != nil {
		writeError(w, err)
		return
	}

	expense, bal, err := s.expenses.CreateExpense(r.Context(), middleware.GetUserID(r.Context()), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, expenseMutationResponse{
		Expense: toExpenseResponse(expense),
		Balance: toBalanceResponse(bal),
	})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.expenses.ListExpenses(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "groupID"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		resp[i] = toExpenseResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := s.expenses.GetExpense(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "expenseID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(expense))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	// The group is pinned server-side; the path group ID is not used.
	in, err := toExpenseInput("", req)
	if err != nil {
		writeError(w, err)
		return
	}

	expense, bal, err := s.expenses.UpdateExpense(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "expenseID"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expenseMutationResponse{
		Expense: toExpenseResponse(expense),
		Balance: toBalanceResponse(bal),
	})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	bal, err := s.expenses.DeleteExpense(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "expenseID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]balanceResponse{"balance": toBalanceResponse(bal)})
}

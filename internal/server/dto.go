package server

import (
	"fmt"

	"github.com/divvyapp/divvy/internal/calculator"
	"github.com/divvyapp/divvy/internal/models"
	"github.com/divvyapp/divvy/internal/money"
	"github.com/divvyapp/divvy/internal/service"
)

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type groupRequest struct {
	Name      string   `json:"name"`
	MemberIDs []string `json:"member_ids"`
}

type groupResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	CreatedBy string   `json:"created_by"`
	CreatedAt int64    `json:"created_at"`
}

// participantRequest is one entry of an expense's participant list. The
// amount is required for exact splits, percent for percentage splits,
// and both are ignored for equal splits.
type participantRequest struct {
	MemberID string        `json:"member_id"`
	Amount   *money.Amount `json:"amount,omitempty"`
	Percent  string        `json:"percent,omitempty"`
}

type expenseRequest struct {
	PayerID      string               `json:"payer_id"`
	Description  string               `json:"description"`
	Amount       money.Amount         `json:"amount"`
	Strategy     string               `json:"strategy"`
	Participants []participantRequest `json:"participants"`
}

type shareResponse struct {
	MemberID string       `json:"member_id"`
	Amount   money.Amount `json:"amount"`
}

type expenseResponse struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	PayerID     string          `json:"payer_id"`
	Description string          `json:"description"`
	Amount      money.Amount    `json:"amount"`
	Strategy    string          `json:"strategy"`
	Shares      []shareResponse `json:"shares"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   int64           `json:"created_at"`
	UpdatedAt   int64           `json:"updated_at"`
}

type settlementRequest struct {
	FromUserID string       `json:"from_user_id"`
	ToUserID   string       `json:"to_user_id"`
	Amount     money.Amount `json:"amount"`
	Note       string       `json:"note,omitempty"`
}

type settlementResponse struct {
	ID         string       `json:"id"`
	GroupID    string       `json:"group_id"`
	FromUserID string       `json:"from_user_id"`
	ToUserID   string       `json:"to_user_id"`
	Amount     money.Amount `json:"amount"`
	Note       string       `json:"note,omitempty"`
	CreatedBy  string       `json:"created_by"`
	CreatedAt  int64        `json:"created_at"`
	UpdatedAt  int64        `json:"updated_at"`
}

type balanceResponse struct {
	GroupID         string                            `json:"group_id"`
	Balances        map[string][]models.MemberBalance `json:"balances"`
	SimplifiedDebts []models.SimplifiedDebt           `json:"simplified_debts"`
	Version         int64                             `json:"version"`
	UpdatedAt       int64                             `json:"updated_at"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func toGroupResponse(g *models.Group) groupResponse {
	return groupResponse{
		ID:        g.ID,
		Name:      g.Name,
		Members:   g.Members,
		CreatedBy: g.CreatedBy,
		CreatedAt: g.CreatedAt,
	}
}

func toExpenseResponse(e *models.Expense) expenseResponse {
	shares := make([]shareResponse, len(e.Shares))
	for i, sh := range e.Shares {
		shares[i] = shareResponse{MemberID: sh.MemberID, Amount: sh.Amount}
	}
	return expenseResponse{
		ID:          e.ID,
		GroupID:     e.GroupID,
		PayerID:     e.PayerID,
		Description: e.Description,
		Amount:      e.Amount,
		Strategy:    string(e.Strategy),
		Shares:      shares,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toSettlementResponse(s *models.Settlement) settlementResponse {
	return settlementResponse{
		ID:         s.ID,
		GroupID:    s.GroupID,
		FromUserID: s.FromUserID,
		ToUserID:   s.ToUserID,
		Amount:     s.Amount,
		Note:       s.Note,
		CreatedBy:  s.CreatedBy,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

func toBalanceResponse(b *models.GroupBalance) balanceResponse {
	resp := balanceResponse{
		GroupID:         b.GroupID,
		Balances:        b.BalancesByCurrency,
		SimplifiedDebts: b.SimplifiedDebts,
		Version:         b.Version,
		UpdatedAt:       b.UpdatedAt,
	}
	if resp.Balances == nil {
		resp.Balances = map[string][]models.MemberBalance{}
	}
	if resp.SimplifiedDebts == nil {
		resp.SimplifiedDebts = []models.SimplifiedDebt{}
	}
	return resp
}

// toExpenseInput converts the wire shape into the service input,
// translating percent strings into basis points.
func toExpenseInput(groupID string, req expenseRequest) (service.ExpenseInput, error) {
	participants := make([]calculator.ShareInput, len(req.Participants))
	for i, p := range req.Participants {
		in := calculator.ShareInput{MemberID: p.MemberID, Amount: p.Amount}
		if p.Percent != "" {
			bp, err := calculator.ParsePercent(p.Percent)
			if err != nil {
				return service.ExpenseInput{}, fmt.Errorf("%w: participant %s: %v", service.ErrInvalidInput, p.MemberID, err)
			}
			in.PercentBP = &bp
		}
		participants[i] = in
	}
	return service.ExpenseInput{
		GroupID:      groupID,
		PayerID:      req.PayerID,
		Description:  req.Description,
		Amount:       req.Amount,
		Strategy:     models.SplitStrategy(req.Strategy),
		Participants: participants,
	}, nil
}

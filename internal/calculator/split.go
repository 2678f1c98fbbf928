// Package calculator implements the pure balance math: expense splits,
// per-currency ledger aggregation, and greedy debt simplification. All
// functions here are side-effect free and operate on minor-unit integers.
package calculator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/divvyapp/divvy/internal/models"
	"github.com/divvyapp/divvy/internal/money"
)

var (
	ErrNoParticipants   = errors.New("at least one participant is required")
	ErrNonPositiveTotal = errors.New("expense amount must be positive")
	ErrDuplicateMember  = errors.New("duplicate participant")
	ErrMissingAmount    = errors.New("exact split requires an amount for every participant")
	ErrMissingPercent   = errors.New("percentage split requires a percentage for every participant")
	ErrNegativeShare    = errors.New("share amounts cannot be negative")
	ErrCurrencyMismatch = errors.New("share currency must match the expense currency")
	ErrAmountSum        = errors.New("share amounts must sum to the expense total")
	ErrPercentSum       = errors.New("percentages must sum to 100")
	ErrPercentRange     = errors.New("percentage must be between 0 and 100")
	ErrUnknownStrategy  = errors.New("unknown split strategy")
)

// ShareInput describes one participant going into a split calculation.
// Amount is consulted for exact splits, PercentBP for percentage splits;
// equal splits need only the member ID.
type ShareInput struct {
	MemberID string

	// Amount is the owed amount for exact splits.
	Amount *money.Amount

	// PercentBP is the participant's percentage in basis points
	// (33.33% = 3333) for percentage splits.
	PercentBP *int64
}

// ParsePercent converts a percentage string such as "33.33" into basis
// points. At most two decimal places are accepted.
func ParsePercent(value string) (int64, error) {
	s := strings.TrimSpace(value)
	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return 0, fmt.Errorf("invalid percentage %q", value)
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > 2 {
		return 0, fmt.Errorf("percentage %q has more than two decimal places", value)
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}
	bp, err := strconv.ParseInt(intPart+fracPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid percentage %q: %w", value, err)
	}
	return bp, nil
}

// ComputeSplits divides an expense total among participants according to
// the strategy. The returned share amounts always sum exactly to the
// total: rounding remainders are distributed one minor unit at a time to
// the first participants, in input order. Validation failures are
// terminal: a split that cannot be made to sum to the total is rejected
// before anything is persisted.
func ComputeSplits(total money.Amount, strategy models.SplitStrategy, participants []ShareInput) ([]models.Share, error) {
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}
	if total.Units <= 0 {
		return nil, ErrNonPositiveTotal
	}
	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		if seen[p.MemberID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMember, p.MemberID)
		}
		seen[p.MemberID] = true
	}

	switch strategy {
	case models.SplitEqual:
		return equalSplit(total, participants), nil
	case models.SplitExact:
		return exactSplit(total, participants)
	case models.SplitPercentage:
		return percentageSplit(total, participants)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

func equalSplit(total money.Amount, participants []ShareInput) []models.Share {
	n := int64(len(participants))
	base := total.Units / n
	rem := total.Units % n

	shares := make([]models.Share, len(participants))
	for i, p := range participants {
		units := base
		if int64(i) < rem {
			units++
		}
		shares[i] = models.Share{MemberID: p.MemberID, Amount: money.New(units, total.Currency)}
	}
	return shares
}

func exactSplit(total money.Amount, participants []ShareInput) ([]models.Share, error) {
	shares := make([]models.Share, len(participants))
	var sum int64
	for i, p := range participants {
		if p.Amount == nil {
			return nil, ErrMissingAmount
		}
		if p.Amount.Currency != total.Currency {
			return nil, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, p.Amount.Currency, total.Currency)
		}
		if p.Amount.Units < 0 {
			return nil, ErrNegativeShare
		}
		sum += p.Amount.Units
		shares[i] = models.Share{MemberID: p.MemberID, Amount: *p.Amount}
	}

	// Tolerate a one-minor-unit rounding residue and fold it into the
	// largest share so the persisted sum is exact. The largest share is
	// at least one unit whenever the sum overshoots, so no share can be
	// driven negative.
	diff := total.Units - sum
	if diff < -1 || diff > 1 {
		return nil, fmt.Errorf("%w: shares sum to %s, expense is %s",
			ErrAmountSum, money.New(sum, total.Currency), total)
	}
	if diff != 0 {
		largest := 0
		for i, share := range shares {
			if share.Amount.Units > shares[largest].Amount.Units {
				largest = i
			}
		}
		shares[largest].Amount.Units += diff
	}
	return shares, nil
}

func percentageSplit(total money.Amount, participants []ShareInput) ([]models.Share, error) {
	var sumBP int64
	for _, p := range participants {
		if p.PercentBP == nil {
			return nil, ErrMissingPercent
		}
		if *p.PercentBP < 0 || *p.PercentBP > 10000 {
			return nil, ErrPercentRange
		}
		sumBP += *p.PercentBP
	}
	if sumBP < 9999 || sumBP > 10001 {
		return nil, fmt.Errorf("%w: got %d.%02d%%", ErrPercentSum, sumBP/100, sumBP%100)
	}

	shares := make([]models.Share, len(participants))
	var allocated int64
	for i, p := range participants {
		units := total.Units * *p.PercentBP / 10000
		allocated += units
		shares[i] = models.Share{MemberID: p.MemberID, Amount: money.New(units, total.Currency)}
	}

	// Correct rounding drift with the same rule as equal splits: one
	// minor unit per share, starting from the first participant. The
	// percentage-sum epsilon can leave a residue larger than the
	// participant count, so corrections wrap around the share list.
	// Downward corrections skip zero shares so none goes negative; a
	// positive share always exists while rem < 0 because the allocated
	// sum exceeds the (positive) total.
	rem := total.Units - allocated
	for i := 0; rem > 0; i = (i + 1) % len(shares) {
		shares[i].Amount.Units++
		rem--
	}
	for i := 0; rem < 0; i = (i + 1) % len(shares) {
		if shares[i].Amount.Units > 0 {
			shares[i].Amount.Units--
			rem++
		}
	}
	return shares, nil
}

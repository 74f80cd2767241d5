package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/freshkart-labs/freshkart-backend/pkg/db/models"
	"github.com/freshkart-labs/freshkart-backend/pkg/enums"
	pkgerrors "github.com/freshkart-labs/freshkart-backend/pkg/errors"
)

// VerifyRequest carries the evidence submitted for one order.
type VerifyRequest struct {
	Image           []byte
	ReferenceWeight *float64
	MeasuredWeight  *float64
}

// RunDTO is the outcome of one verification run. Checks whose inputs were
// missing are absent from Results rather than reported as failures.
type RunDTO struct {
	RunID   uuid.UUID                                             `json:"run_id"`
	OrderID uuid.UUID                                             `json:"order_id"`
	Results map[enums.VerificationCheck]enums.VerificationOutcome `json:"results"`
	RanAt   time.Time                                             `json:"ran_at"`
}

type orderFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// Service runs advisory verification against existing orders. It never
// mutates order state. Orders belonging to another user surface as not
// found so that foreign order IDs leak nothing.
type Service interface {
	Verify(ctx context.Context, userID, orderID uuid.UUID, req VerifyRequest) (*RunDTO, error)
	ListRuns(ctx context.Context, userID, orderID uuid.UUID) ([]RunDTO, error)
}

type service struct {
	repo   *Repository
	orders orderFinder
	scorer Scorer
}

// NewService constructs a verification service instance.
func NewService(repo *Repository, orders orderFinder, scorer Scorer) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("verification repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order finder required")
	}
	if scorer == nil {
		return nil, fmt.Errorf("scorer required")
	}
	return &service{repo: repo, orders: orders, scorer: scorer}, nil
}

func (s *service) loadOwnedOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) Verify(ctx context.Context, userID, orderID uuid.UUID, req VerifyRequest) (*RunDTO, error) {
	order, err := s.loadOwnedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	results := s.scorer.Score(ScoreInput{
		Image:           req.Image,
		ReferenceWeight: req.ReferenceWeight,
		MeasuredWeight:  req.MeasuredWeight,
	})

	runID := uuid.New()
	now := time.Now().UTC()
	var digest *string
	if len(req.Image) > 0 {
		d := ImageDigest(req.Image)
		digest = &d
	}

	var persistErr error
	for check, outcome := range results {
		row := &models.VerificationResult{
			OrderID:        order.ID,
			RunID:          runID,
			Check:          check,
			Outcome:        outcome,
			ImageDigest:    digest,
			MeasuredWeight: req.MeasuredWeight,
		}
		if _, err := s.repo.Create(ctx, row); err != nil {
			persistErr = multierr.Append(persistErr, fmt.Errorf("persist %s: %w", check, err))
		}
	}
	if persistErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, persistErr, "persist verification results")
	}

	return &RunDTO{
		RunID:   runID,
		OrderID: order.ID,
		Results: results,
		RanAt:   now,
	}, nil
}

func (s *service) ListRuns(ctx context.Context, userID, orderID uuid.UUID) ([]RunDTO, error) {
	if _, err := s.loadOwnedOrder(ctx, userID, orderID); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list verification results")
	}

	// Rows come back ordered by creation, so runs appear oldest first.
	runs := make([]RunDTO, 0)
	index := make(map[uuid.UUID]int)
	for i := range rows {
		row := &rows[i]
		pos, ok := index[row.RunID]
		if !ok {
			pos = len(runs)
			index[row.RunID] = pos
			runs = append(runs, RunDTO{
				RunID:   row.RunID,
				OrderID: row.OrderID,
				Results: make(map[enums.VerificationCheck]enums.VerificationOutcome),
				RanAt:   row.CreatedAt,
			})
		}
		runs[pos].Results[row.Check] = row.Outcome
	}
	return runs, nil
}

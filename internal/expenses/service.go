package expenses

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/foodzone/foodzone-pos/internal/accounting"
	"github.com/foodzone/foodzone-pos/internal/ledger"
	"github.com/foodzone/foodzone-pos/internal/shared"
)

// Repository stores misc expenses.
type Repository interface {
	ListMiscExpenses(ctx context.Context, start, end time.Time) ([]ledger.MiscExpense, error)
	GetMiscExpense(ctx context.Context, id string) (ledger.MiscExpense, error)
	InsertMiscExpense(ctx context.Context, e ledger.MiscExpense) error
	SetExpenseSettled(ctx context.Context, id string, settled bool) (ledger.MiscExpense, error)
	DeleteUnsettledExpense(ctx context.Context, id string) error
}

// Auditor records expense mutations.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Notifier announces that the expense feed changed.
type Notifier interface {
	Bump(ctx context.Context, feed accounting.Feed) error
}

// Idempotency guards retried creates.
type Idempotency interface {
	Claim(ctx context.Context, key, scope string) error
	Release(ctx context.Context, key, scope string) error
}

const createScope = "expense.create"

// CreateInput captures a new misc expense.
type CreateInput struct {
	Purpose     string  `json:"purpose" validate:"required,max=200"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	Source      string  `json:"source" validate:"required,oneof=cash momo"`
	CashierID   string  `json:"cashierId" validate:"max=64"`
	CashierName string  `json:"cashierName" validate:"max=120"`
	// IdempotencyKey comes from the Idempotency-Key request header.
	IdempotencyKey string `json:"-" validate:"max=128"`
}

// Service manages the misc expense lifecycle.
type Service struct {
	repo     Repository
	audit    Auditor
	notifier Notifier
	idem     Idempotency
	loc      *time.Location
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the service. audit and notifier may be nil.
func NewService(repo Repository, audit Auditor, notifier Notifier, loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		audit:    audit,
		notifier: notifier,
		loc:      loc,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithIdempotency enables Idempotency-Key handling on Create.
func (s *Service) WithIdempotency(idem Idempotency) {
	s.idem = idem
}

// List returns the expenses of a day; empty date means today.
func (s *Service) List(ctx context.Context, date string) ([]ledger.MiscExpense, error) {
	w := ledger.Day(s.now(), s.loc)
	if date != "" {
		var err error
		if w, err = ledger.ParseDay(date, s.loc); err != nil {
			return nil, err
		}
	}
	return s.repo.ListMiscExpenses(ctx, w.Start, w.End)
}

// Create records a new unsettled expense.
func (s *Service) Create(ctx context.Context, in CreateInput) (ledger.MiscExpense, error) {
	in.Purpose = strings.TrimSpace(in.Purpose)
	in.Source = strings.ToLower(strings.TrimSpace(in.Source))
	if err := s.validate.Struct(in); err != nil {
		return ledger.MiscExpense{}, fmt.Errorf("expenses: %w: %v", shared.ErrValidation, err)
	}
	now := s.now().UTC()
	e := ledger.MiscExpense{
		ID:          uuid.NewString(),
		Purpose:     in.Purpose,
		Amount:      shared.RoundCedi(in.Amount),
		Source:      ledger.ExpenseSource(in.Source),
		CashierID:   in.CashierID,
		CashierName: in.CashierName,
		Timestamp:   &now,
	}
	guarded := s.idem != nil && in.IdempotencyKey != ""
	if guarded {
		if err := s.idem.Claim(ctx, in.IdempotencyKey, createScope); err != nil {
			return ledger.MiscExpense{}, err
		}
	}
	if err := s.repo.InsertMiscExpense(ctx, e); err != nil {
		if guarded {
			if relErr := s.idem.Release(ctx, in.IdempotencyKey, createScope); relErr != nil {
				s.logger.Warn("release idempotency key", slog.Any("error", relErr))
			}
		}
		return ledger.MiscExpense{}, err
	}
	s.changed(ctx, createScope, e)
	return e, nil
}

// SetSettled updates the settled flag. A nil value toggles it.
func (s *Service) SetSettled(ctx context.Context, id string, settled *bool) (ledger.MiscExpense, error) {
	target := false
	if settled != nil {
		target = *settled
	} else {
		current, err := s.repo.GetMiscExpense(ctx, id)
		if err != nil {
			return ledger.MiscExpense{}, err
		}
		target = !current.Settled
	}
	e, err := s.repo.SetExpenseSettled(ctx, id, target)
	if err != nil {
		return ledger.MiscExpense{}, err
	}
	s.changed(ctx, "expense.settle", e)
	return e, nil
}

// Delete removes an expense that has not been settled yet.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteUnsettledExpense(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, "expense.delete", ledger.MiscExpense{ID: id})
	return nil
}

func (s *Service) changed(ctx context.Context, action string, e ledger.MiscExpense) {
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			Actor:    e.CashierID,
			Action:   action,
			Entity:   "misc_expense",
			EntityID: e.ID,
			Meta:     map[string]any{"amount": e.Amount, "source": string(e.Source), "settled": e.Settled},
		})
		if err != nil {
			s.logger.Warn("audit expense", slog.String("action", action), slog.Any("error", err))
		}
	}
	if s.notifier != nil {
		if err := s.notifier.Bump(ctx, accounting.FeedExpenses); err != nil {
			s.logger.Warn("notify expense change", slog.Any("error", err))
		}
	}
}

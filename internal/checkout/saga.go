package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/rmcampos/storefront/internal/domain"
	"github.com/rmcampos/storefront/internal/identity"
	"github.com/rmcampos/storefront/internal/pricing"
)

type CartStore interface {
	GetLines(ctx context.Context, userID string) ([]domain.CartLine, error)
	Clear(ctx context.Context, userID string) error
}

type StockLedger interface {
	StockReader
	Decrement(ctx context.Context, productID string, qty int) (int, error)
}

type OrderWriter interface {
	CreateHeader(ctx context.Context, order *domain.Order) error
	CreateLines(ctx context.Context, orderID string, lines []domain.OrderLine) error
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Saga turns a user's cart into an order: validate stock, compute totals,
// create the header, create the lines, decrement stock, clear the cart.
// The writes are individually committed; there is no transaction spanning
// them and no automatic rollback. A failure after the header exists is a
// surfaced partial state, published for the reconciler and logged with
// per-line outcomes.
type Saga struct {
	identity   identity.Provider
	carts      CartStore
	validator  *Validator
	calculator *pricing.Calculator
	orders     OrderWriter
	ledger     StockLedger
	attempts   AttemptLog
	placed     EventPublisher
	failed     EventPublisher
	logger     *slog.Logger

	completedCounter metric.Int64Counter
	failedCounter    metric.Int64Counter
}

func NewSaga(
	provider identity.Provider,
	carts CartStore,
	ledger StockLedger,
	calculator *pricing.Calculator,
	orders OrderWriter,
	attempts AttemptLog,
	placed EventPublisher,
	failed EventPublisher,
	logger *slog.Logger,
) (*Saga, error) {
	meter := otel.Meter("checkout")

	completed, err := meter.Int64Counter("checkout.completed",
		metric.WithDescription("Checkouts that reached the completed state"))
	if err != nil {
		return nil, err
	}

	failedCounter, err := meter.Int64Counter("checkout.failed",
		metric.WithDescription("Checkouts that failed, by step"))
	if err != nil {
		return nil, err
	}

	return &Saga{
		identity:         provider,
		carts:            carts,
		validator:        NewValidator(ledger),
		calculator:       calculator,
		orders:           orders,
		ledger:           ledger,
		attempts:         attempts,
		placed:           placed,
		failed:           failed,
		logger:           logger,
		completedCounter: completed,
		failedCounter:    failedCounter,
	}, nil
}

// Execute runs one checkout attempt for the session identified by token.
// Each attempt is independent; a retry re-reads the cart from scratch.
// Validation failures (empty cart, shortfalls, unknown product) happen
// before any write. Once the header exists, failures are returned as a
// *StepError whose Partial method reports whether writes were left behind.
func (s *Saga) Execute(ctx context.Context, token string, contact domain.Contact) (*domain.Order, error) {
	user, err := s.identity.CurrentUser(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if user == nil {
		return nil, ErrNotAuthenticated
	}

	attemptID := uuid.New().String()
	s.record(ctx, attemptID, user.ID, "", StepStarted, "")

	lines, err := s.carts.GetLines(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	shortfalls, err := s.validator.Check(ctx, lines)
	if err != nil {
		return nil, err
	}
	if len(shortfalls) > 0 {
		s.countFailure(ctx, StepStockValidated)
		return nil, &StockShortfallError{Shortfalls: shortfalls}
	}
	s.record(ctx, attemptID, user.ID, "", StepStockValidated, "")

	amounts := make([]pricing.LineAmount, len(lines))
	for i, line := range lines {
		amounts[i] = pricing.LineAmount{UnitPrice: line.UnitPrice, Quantity: line.Quantity}
	}
	totals, err := s.calculator.Calculate(amounts)
	if err != nil {
		return nil, err
	}

	if contact.Email == "" {
		contact.Email = user.Email
	}

	order := &domain.Order{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		Contact:     contact,
		ShippingFee: totals.ShippingFee,
		Total:       totals.Total,
		Status:      domain.OrderStatusPending,
		CreatedAt:   time.Now().UTC(),
	}

	// First irreversible write. Everything before this point leaves no
	// trace; everything after can only fail partially.
	if err := s.orders.CreateHeader(ctx, order); err != nil {
		s.countFailure(ctx, StepHeaderCreated)
		return nil, &StepError{Step: StepHeaderCreated, Err: fmt.Errorf("create order header: %w", err)}
	}
	s.record(ctx, attemptID, user.ID, order.ID, StepHeaderCreated, "")

	order.Lines = mintOrderLines(order.ID, lines)
	if err := s.orders.CreateLines(ctx, order.ID, order.Lines); err != nil {
		stepErr := &StepError{Step: StepLinesCreated, OrderID: order.ID, Err: fmt.Errorf("create order lines: %w", err)}
		s.surfacePartialFailure(ctx, attemptID, order, outcomes(lines, 0), stepErr)
		return nil, stepErr
	}
	s.record(ctx, attemptID, user.ID, order.ID, StepLinesCreated, "")

	// Decrements run in cart order; the first failure stops the loop so
	// the per-line outcomes pinpoint exactly which products were taken.
	for i, line := range lines {
		if _, err := s.ledger.Decrement(ctx, line.ProductID, line.Quantity); err != nil {
			stepErr := &StepError{
				Step:    StepStockDecremented,
				OrderID: order.ID,
				Err:     fmt.Errorf("decrement stock for product %s: %w", line.ProductID, err),
			}
			s.surfacePartialFailure(ctx, attemptID, order, outcomes(lines, i), stepErr)
			return nil, stepErr
		}
	}
	s.record(ctx, attemptID, user.ID, order.ID, StepStockDecremented, "")

	if err := s.carts.Clear(ctx, user.ID); err != nil {
		stepErr := &StepError{Step: StepCartCleared, OrderID: order.ID, Err: fmt.Errorf("clear cart: %w", err)}
		s.surfacePartialFailure(ctx, attemptID, order, outcomes(lines, len(lines)), stepErr)
		return nil, stepErr
	}
	s.record(ctx, attemptID, user.ID, order.ID, StepCartCleared, "")

	if s.placed != nil {
		event := domain.OrderPlacedEvent{
			OrderID:   order.ID,
			UserID:    order.UserID,
			Email:     order.Contact.Email,
			Total:     order.Total,
			LineCount: len(order.Lines),
			Timestamp: order.CreatedAt,
		}
		if err := s.placed.Publish(ctx, order.ID, event); err != nil {
			s.logger.Error("failed to publish order placed event", "error", err, "order_id", order.ID)
		}
	}

	s.record(ctx, attemptID, user.ID, order.ID, StepCompleted, "")
	s.completedCounter.Add(ctx, 1)
	s.logger.Info("checkout completed", "order_id", order.ID, "user_id", user.ID, "total", order.Total)

	return order, nil
}

func mintOrderLines(orderID string, lines []domain.CartLine) []domain.OrderLine {
	orderLines := make([]domain.OrderLine, len(lines))
	for i, line := range lines {
		orderLines[i] = domain.OrderLine{
			ID:          uuid.New().String(),
			OrderID:     orderID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			LineTotal:   line.UnitPrice * int64(line.Quantity),
		}
	}
	return orderLines
}

// outcomes reports the first `decremented` lines as applied and the rest
// as not.
func outcomes(lines []domain.CartLine, decremented int) []domain.LineOutcome {
	result := make([]domain.LineOutcome, len(lines))
	for i, line := range lines {
		result[i] = domain.LineOutcome{
			ProductID:   line.ProductID,
			Quantity:    line.Quantity,
			Decremented: i < decremented,
		}
	}
	return result
}

// surfacePartialFailure makes a post-header failure loud: it logs the
// order id, the failed step and every per-line outcome, appends the
// failure to the attempt log, and publishes a reconciliation event. It
// must never be mistaken for success.
func (s *Saga) surfacePartialFailure(ctx context.Context, attemptID string, order *domain.Order, lineOutcomes []domain.LineOutcome, stepErr *StepError) {
	s.countFailure(ctx, stepErr.Step)

	detail, err := json.Marshal(map[string]any{
		"failed_step": stepErr.Step.String(),
		"outcomes":    lineOutcomes,
	})
	if err != nil {
		detail = nil
	}
	s.record(ctx, attemptID, order.UserID, order.ID, StepFailed, string(detail))

	s.logger.Error("checkout failed after irreversible write",
		"order_id", order.ID,
		"user_id", order.UserID,
		"failed_step", stepErr.Step.String(),
		"outcomes", string(detail),
		"error", stepErr.Err,
	)

	if s.failed == nil {
		return
	}

	event := domain.CheckoutFailedEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		FailedStep: stepErr.Step.String(),
		Outcomes:   lineOutcomes,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.failed.Publish(ctx, order.ID, event); err != nil {
		s.logger.Error("failed to publish checkout failed event", "error", err, "order_id", order.ID)
	}
}

// record appends to the attempt log. The log is an audit trail; an append
// failure is logged and does not fail the checkout.
func (s *Saga) record(ctx context.Context, attemptID, userID, orderID string, step Step, detail string) {
	if s.attempts == nil {
		return
	}

	entry := AttemptEntry{
		AttemptID: attemptID,
		UserID:    userID,
		OrderID:   orderID,
		Step:      step,
		Detail:    detail,
	}
	if err := s.attempts.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append checkout attempt log", "error", err, "attempt_id", attemptID, "step", step.String())
	}
}

func (s *Saga) countFailure(ctx context.Context, step Step) {
	s.failedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("step", step.String())))
}

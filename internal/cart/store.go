package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rmcampos/storefront/internal/domain"
)

var (
	ErrInvalidLine    = errors.New("invalid cart line")
	ErrUnknownProduct = errors.New("unknown product")
	ErrLineNotFound   = errors.New("cart line not found")
)

// ProductReader supplies the name/price snapshot captured when a line is
// added.
type ProductReader interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

// Store owns pending cart lines. Every line that enters the store goes
// through the same shape validation; consumers can rely on positive
// quantities and non-negative snapshot prices.
type Store struct {
	db       *sql.DB
	products ProductReader
}

func NewStore(db *sql.DB, products ProductReader) *Store {
	return &Store{db: db, products: products}
}

// GetLines returns the user's cart ordered by insertion time. The checkout
// saga processes lines in exactly this order.
func (s *Store) GetLines(ctx context.Context, userID string) ([]domain.CartLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, product_id, product_name, unit_price, quantity, created_at
		FROM cart_lines
		WHERE user_id = $1
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var lines []domain.CartLine
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ID, &line.UserID, &line.ProductID, &line.ProductName,
			&line.UnitPrice, &line.Quantity, &line.CreatedAt); err != nil {
			return nil, err
		}
		if err := validateLine(line); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// AddLine appends a line for the given product, snapshotting the catalog
// name and price at add time. An existing line for the same product has
// its quantity increased instead.
func (s *Store) AddLine(ctx context.Context, userID, productID string, quantity int) (*domain.CartLine, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidLine)
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrUnknownProduct
	}

	line := &domain.CartLine{
		ID:          uuid.New().String(),
		UserID:      userID,
		ProductID:   product.ID,
		ProductName: product.Name,
		UnitPrice:   product.Price,
		Quantity:    quantity,
		CreatedAt:   time.Now().UTC(),
	}
	if err := validateLine(*line); err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO cart_lines (id, user_id, product_id, product_name, unit_price, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity
		RETURNING id, quantity, created_at
	`, line.ID, line.UserID, line.ProductID, line.ProductName,
		line.UnitPrice, line.Quantity, line.CreatedAt).
		Scan(&line.ID, &line.Quantity, &line.CreatedAt)
	if err != nil {
		return nil, err
	}

	return line, nil
}

func (s *Store) RemoveLine(ctx context.Context, userID, lineID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM cart_lines
		WHERE id = $1 AND user_id = $2
	`, lineID, userID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrLineNotFound
	}

	return nil
}

// Clear deletes every line for the user. The saga calls this only after
// all stock decrements have succeeded.
func (s *Store) Clear(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM cart_lines
		WHERE user_id = $1
	`, userID)
	return err
}

func validateLine(line domain.CartLine) error {
	if line.ProductID == "" {
		return fmt.Errorf("%w: missing product reference", ErrInvalidLine)
	}
	if line.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidLine)
	}
	if line.UnitPrice < 0 {
		return fmt.Errorf("%w: negative unit price", ErrInvalidLine)
	}
	return nil
}

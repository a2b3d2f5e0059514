package orders

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/rmcampos/storefront/internal/domain"
)

// Repository persists order headers and lines. The two creates are
// deliberately separate, individually-committed writes: the underlying
// store gives the saga no transaction spanning multiple entities, and the
// saga's step accounting depends on knowing which of the two succeeded.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateHeader(ctx context.Context, order *domain.Order) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, contact_name, contact_email, contact_address, shipping_fee, total, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, order.ID, order.UserID, order.Contact.Name, order.Contact.Email, order.Contact.Address,
		order.ShippingFee, order.Total, order.Status, order.CreatedAt)
	return err
}

func (r *Repository) CreateLines(ctx context.Context, orderID string, lines []domain.OrderLine) error {
	for _, line := range lines {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO order_lines (id, order_id, product_id, product_name, unit_price, quantity, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, line.ID, orderID, line.ProductID, line.ProductName, line.UnitPrice, line.Quantity, line.LineTotal)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order := &domain.Order{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, contact_name, contact_email, contact_address, shipping_fee, total, status, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.UserID, &order.Contact.Name, &order.Contact.Email, &order.Contact.Address,
		&order.ShippingFee, &order.Total, &order.Status, &order.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, unit_price, quantity, line_total
		FROM order_lines
		WHERE order_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.ProductName,
			&line.UnitPrice, &line.Quantity, &line.LineTotal); err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, contact_name, contact_email, contact_address, shipping_fee, total, status, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.UserID, &order.Contact.Name, &order.Contact.Email, &order.Contact.Address,
			&order.ShippingFee, &order.Total, &order.Status, &order.CreatedAt); err != nil {
			return nil, err
		}
		order.Lines = []domain.OrderLine{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	lineRows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, unit_price, quantity, line_total
		FROM order_lines
		WHERE order_id = ANY($1)
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = lineRows.Close() }()

	for lineRows.Next() {
		var line domain.OrderLine
		if err := lineRows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.ProductName,
			&line.UnitPrice, &line.Quantity, &line.LineTotal); err != nil {
			return nil, err
		}
		order := orderMap[line.OrderID]
		order.Lines = append(order.Lines, line)
	}

	if err := lineRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1
		WHERE id = $2
	`, status, id)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

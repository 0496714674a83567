package pgrepo

import (
	"context"

	"github.com/fsdevblog/taskcenter/internal/domain"
	"github.com/fsdevblog/taskcenter/internal/repository/repoargs"
	"github.com/fsdevblog/taskcenter/pkg/uow"
)

const orderColumns = `id, created_at, updated_at, user_id, product_id, product_name,
	quantity, total_amount, commission, status`

type OrderRepository struct {
	conn uow.DBTX
}

func NewOrderRepository(conn uow.DBTX) *OrderRepository {
	return &OrderRepository{conn: conn}
}

// Create вставляет pending заказ. Если у пользователя уже есть pending заказ, уникальный индекс
// orders_one_pending_per_user вернет domain.ErrDuplicateKey.
func (o *OrderRepository) Create(ctx context.Context, args repoargs.CreateOrder) (*domain.Order, error) {
	row := o.conn.QueryRow(ctx,
		`INSERT INTO orders (id, user_id, product_id, product_name, quantity, total_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+orderColumns,
		args.ID, args.UserID, args.ProductID, args.ProductName, args.Quantity, args.TotalAmount,
		domain.OrderStatusPending,
	)
	order, err := scanOrder(row)
	if err != nil {
		return nil, convertErr(err, "creating order for user_id `%s`", args.UserID)
	}
	return order, nil
}

func (o *OrderRepository) FindPendingByUserID(ctx context.Context, userID string) (*domain.Order, error) {
	row := o.conn.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 AND status = $2`,
		userID, domain.OrderStatusPending,
	)
	order, err := scanOrder(row)
	if err != nil {
		return nil, convertErr(err, "finding pending order of user_id `%s`", userID)
	}
	return order, nil
}

// Complete переводит pending заказ пользователя по товару args.ProductID в completed (compare-and-swap по
// статусу). Если подходящего pending заказа нет, возвращает domain.ErrRecordNotFound.
func (o *OrderRepository) Complete(ctx context.Context, args repoargs.CompleteOrder) (*domain.Order, error) {
	row := o.conn.QueryRow(ctx,
		`UPDATE orders SET status = $1, total_amount = $2, commission = $3, updated_at = now()
		WHERE user_id = $4 AND product_id = $5 AND status = $6
		RETURNING `+orderColumns,
		domain.OrderStatusCompleted, args.TotalAmount, args.Commission,
		args.UserID, args.ProductID, domain.OrderStatusPending,
	)
	order, err := scanOrder(row)
	if err != nil {
		return nil, convertErr(err, "completing order of user_id `%s`, product `%d`", args.UserID, args.ProductID)
	}
	return order, nil
}

// Cancel переводит pending заказ пользователя в cancelled. Если pending заказа нет,
// возвращает domain.ErrRecordNotFound.
func (o *OrderRepository) Cancel(ctx context.Context, userID string) (*domain.Order, error) {
	row := o.conn.QueryRow(ctx,
		`UPDATE orders SET status = $1, updated_at = now()
		WHERE user_id = $2 AND status = $3
		RETURNING `+orderColumns,
		domain.OrderStatusCancelled, userID, domain.OrderStatusPending,
	)
	order, err := scanOrder(row)
	if err != nil {
		return nil, convertErr(err, "cancelling order of user_id `%s`", userID)
	}
	return order, nil
}

// GetByUserID возвращает заказы пользователя, отсортированные по дате создания по убыванию.
func (o *OrderRepository) GetByUserID(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := o.conn.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, convertErr(err, "getting orders by user_id `%s`", userID)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, scanErr := scanOrder(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "scanning order of user_id `%s`", userID)
		}
		orders = append(orders, *order)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "getting orders by user_id `%s`", userID)
	}
	return orders, nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	if err := row.Scan(
		&order.ID,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.UserID,
		&order.ProductID,
		&order.ProductName,
		&order.Quantity,
		&order.TotalAmount,
		&order.Commission,
		&order.Status,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &order, nil
}

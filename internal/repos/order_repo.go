package repos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/juju/errors"

	"storefront/internal/backend"
	"storefront/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

type orderRow struct {
	ID         uint64 `db:"id"`
	BuyerName  string `db:"buyer_name"`
	BuyerEmail string `db:"buyer_email"`
	TotalPrice int64  `db:"total_price"`
	Status     string `db:"status"`
	CreatedAt  string `db:"created_at"`
}

type orderItemRow struct {
	OrderID   uint64 `db:"order_id"`
	ProductID uint64 `db:"product_id"`
	Quantity  int64  `db:"quantity"`
	Price     int64  `db:"price"`
}

const orderCols = `id, buyer_name, buyer_email, total_price, status, created_at`

// OrderFilter narrows List; empty fields match everything.
type OrderFilter struct {
	BuyerEmail string
	SellerID   string
}

// Create stores the order and its lines in one transaction, taking stock
// for every line. The total is recomputed from the lines and the status
// always starts as pending.
func (r *OrderRepo) Create(ctx context.Context, o domain.Order) (uint64, error) {
	if err := backend.CheckOrder(o); err != nil {
		return 0, err
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Annotate(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	sellers := make([]string, len(o.Items))
	for i, it := range o.Items {
		if sellers[i], err = decrementStock(ctx, tx, it.ProductID, it.Quantity); err != nil {
			return 0, err
		}
	}

	var id uint64
	err = tx.QueryRowxContext(ctx, tx.Rebind(`
		INSERT INTO orders(buyer_name, buyer_email, total_price, status, created_at)
		VALUES(?,?,?,?,?)
		RETURNING id
	`), o.BuyerName, o.BuyerEmail, o.ItemsTotal(), string(domain.StatusPending), formatTime(o.CreatedAt)).Scan(&id)
	if err != nil {
		return 0, errors.Annotate(err, "create order")
	}

	for i, it := range o.Items {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO order_items(order_id, line, product_id, seller_id, quantity, price)
			VALUES(?,?,?,?,?,?)
		`), id, i, it.ProductID, sellers[i], it.Quantity, it.Price); err != nil {
			return 0, errors.Annotate(err, "create order item")
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Annotate(err, "commit order")
	}
	return id, nil
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint64, status domain.OrderStatus) error {
	if !status.Valid() {
		return errors.Annotatef(backend.ErrInvalidStatus, "%q", status)
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE orders SET status = ? WHERE id = ?`), string(status), id)
	if err != nil {
		return errors.Annotatef(err, "update order %d", id)
	}
	return expectOne(res, backend.ErrOrderNotFound)
}

func (r *OrderRepo) Get(ctx context.Context, id uint64) (domain.Option[domain.Order], error) {
	var row orderRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+orderCols+` FROM orders WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.None[domain.Order](), nil
	}
	if err != nil {
		return domain.None[domain.Order](), errors.Annotatef(err, "get order %d", id)
	}
	orders, err := r.withItems(ctx, []orderRow{row})
	if err != nil {
		return domain.None[domain.Order](), err
	}
	return domain.Some(orders[0]), nil
}

func (r *OrderRepo) List(ctx context.Context, f OrderFilter) ([]domain.Order, error) {
	where := `1 = 1`
	args := []any{}
	if f.BuyerEmail != "" {
		where += ` AND LOWER(buyer_email) = LOWER(?)`
		args = append(args, f.BuyerEmail)
	}
	if f.SellerID != "" {
		where += ` AND id IN (SELECT order_id FROM order_items WHERE seller_id = ?)`
		args = append(args, f.SellerID)
	}

	var rows []orderRow
	q := `SELECT ` + orderCols + ` FROM orders WHERE ` + where + ` ORDER BY id DESC`
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, errors.Annotate(err, "list orders")
	}
	return r.withItems(ctx, rows)
}

func (r *OrderRepo) withItems(ctx context.Context, rows []orderRow) ([]domain.Order, error) {
	out := make([]domain.Order, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]uint64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	query, args, err := sqlx.In(`
		SELECT order_id, product_id, quantity, price
		FROM order_items
		WHERE order_id IN (?)
		ORDER BY order_id, line
	`, ids)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var items []orderItemRow
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, errors.Annotate(err, "load order items")
	}

	byOrder := make(map[uint64][]domain.OrderItem, len(rows))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], domain.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	for _, row := range rows {
		out = append(out, domain.Order{
			ID:         row.ID,
			BuyerName:  row.BuyerName,
			BuyerEmail: row.BuyerEmail,
			Items:      byOrder[row.ID],
			TotalPrice: row.TotalPrice,
			Status:     domain.OrderStatus(row.Status),
			CreatedAt:  parseTime(row.CreatedAt),
		})
	}
	return out, nil
}

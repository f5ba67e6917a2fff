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

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

type productRow struct {
	ID          uint64 `db:"id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	Price       int64  `db:"price"`
	Stock       int64  `db:"stock"`
	Category    string `db:"category"`
	ImageURL    string `db:"image_url"`
	SellerID    string `db:"seller_id"`
	CreatedAt   string `db:"created_at"`
}

func (r productRow) product() domain.Product {
	return domain.Product{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		Category:    r.Category,
		ImageURL:    r.ImageURL,
		SellerID:    r.SellerID,
		CreatedAt:   parseTime(r.CreatedAt),
	}
}

const productCols = `id, title, description, price, stock, category, image_url, seller_id, created_at`

// ProductFilter narrows List; empty fields match everything.
type ProductFilter struct {
	Category string
	SellerID string
}

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (uint64, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	var id uint64
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(`
		INSERT INTO products(title, description, price, stock, category, image_url, seller_id, created_at)
		VALUES(?,?,?,?,?,?,?,?)
		RETURNING id
	`), p.Title, p.Description, p.Price, p.Stock, p.Category, p.ImageURL, p.SellerID, formatTime(p.CreatedAt)).Scan(&id)
	if err != nil {
		return 0, errors.Annotate(err, "create product")
	}
	return id, nil
}

// Update overwrites the editable fields; id and created_at stay.
func (r *ProductRepo) Update(ctx context.Context, id uint64, p domain.Product) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE products
		SET title = ?, description = ?, price = ?, stock = ?, category = ?, image_url = ?, seller_id = ?
		WHERE id = ?
	`), p.Title, p.Description, p.Price, p.Stock, p.Category, p.ImageURL, p.SellerID, id)
	if err != nil {
		return errors.Annotatef(err, "update product %d", id)
	}
	return expectOne(res, backend.ErrProductNotFound)
}

func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return errors.Annotatef(err, "delete product %d", id)
	}
	return expectOne(res, backend.ErrProductNotFound)
}

func (r *ProductRepo) Get(ctx context.Context, id uint64) (domain.Option[domain.Product], error) {
	var row productRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+productCols+` FROM products WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.None[domain.Product](), nil
	}
	if err != nil {
		return domain.None[domain.Product](), errors.Annotatef(err, "get product %d", id)
	}
	return domain.Some(row.product()), nil
}

func (r *ProductRepo) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	where := `1 = 1`
	args := []any{}
	if f.Category != "" {
		where += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.SellerID != "" {
		where += ` AND seller_id = ?`
		args = append(args, f.SellerID)
	}

	var rows []productRow
	q := `SELECT ` + productCols + ` FROM products WHERE ` + where + ` ORDER BY id DESC`
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, errors.Annotate(err, "list products")
	}
	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.product())
	}
	return out, nil
}

// decrementStock subtracts qty if enough stock exists and returns the
// product's seller.
func decrementStock(ctx context.Context, tx *sqlx.Tx, productID uint64, qty int64) (string, error) {
	var sellerID string
	err := tx.GetContext(ctx, &sellerID, tx.Rebind(`SELECT seller_id FROM products WHERE id = ?`), productID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errors.Annotatef(backend.ErrProductNotFound, "product %d", productID)
	}
	if err != nil {
		return "", errors.Trace(err)
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE products
		SET stock = stock - ?
		WHERE id = ? AND stock >= ?
	`), qty, productID, qty)
	if err != nil {
		return "", errors.Annotatef(err, "decrement stock %d", productID)
	}
	if err := expectOne(res, backend.ErrInsufficientStock); err != nil {
		return "", errors.Annotatef(err, "product %d", productID)
	}
	return sellerID, nil
}

func expectOne(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Trace(err)
	}
	if n == 0 {
		return missing
	}
	return nil
}

package repos

import (
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/juju/errors"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	applog "storefront/internal/log"
)

const (
	driverSQLite   = "sqlite"
	driverPostgres = "postgres"
)

// timeLayout keeps stored timestamps fixed-width so they sort as text.
const timeLayout = "2006-01-02T15:04:05.000000Z"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	return time.Time{}
}

// DriverFor picks the SQL driver from the DSN: postgres URLs use lib/pq,
// anything else is a sqlite path.
func DriverFor(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return driverPostgres
	}
	return driverSQLite
}

func OpenDB(dsn string) (*sqlx.DB, error) {
	driver := DriverFor(dsn)
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Annotatef(err, "open %s", driver)
	}
	if driver == driverSQLite {
		// one connection: keeps :memory: databases whole and avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, errors.Annotatef(err, "ping %s", driver)
	}

	if err := ensureSchema(db); err != nil {
		return nil, errors.Annotate(err, "schema")
	}
	// Ensure sellers exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, errors.Annotate(err, "seed users")
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	idCol := "INTEGER PRIMARY KEY AUTOINCREMENT"
	prelude := "PRAGMA foreign_keys = ON;\n"
	if db.DriverName() == driverPostgres {
		idCol = "BIGSERIAL PRIMARY KEY"
		prelude = ""
	}

	schema := prelude + `
-- Products
CREATE TABLE IF NOT EXISTS products(
  id ` + idCol + `,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price BIGINT NOT NULL CHECK (price >= 0),
  stock BIGINT NOT NULL CHECK (stock >= 0),
  category TEXT NOT NULL DEFAULT '',
  image_url TEXT NOT NULL DEFAULT '',
  seller_id TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
CREATE INDEX IF NOT EXISTS idx_products_seller   ON products(seller_id);

-- Orders
CREATE TABLE IF NOT EXISTS orders(
  id ` + idCol + `,
  buyer_name TEXT NOT NULL,
  buyer_email TEXT NOT NULL,
  total_price BIGINT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','fulfilled','cancelled')),
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_buyer ON orders(LOWER(buyer_email));

-- product_id is not a foreign key: deleting a product keeps order history
CREATE TABLE IF NOT EXISTS order_items(
  order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  line INTEGER NOT NULL,
  product_id BIGINT NOT NULL,
  seller_id TEXT NOT NULL DEFAULT '',
  quantity BIGINT NOT NULL CHECK (quantity >= 1),
  price BIGINT NOT NULL,
  PRIMARY KEY (order_id, line)
);
CREATE INDEX IF NOT EXISTS idx_order_items_seller ON order_items(seller_id);

-- Sellers & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('SELLER')),
  created_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  last_seen TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

// seedUsers ensures the demo sellers exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Hash string
	}
	mk := func(id, email, name, raw string) (u, error) {
		h, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
		return u{ID: id, Email: email, Name: name, Hash: string(h)}, err
	}

	var users []u
	for _, x := range [][3]string{
		{"u-mina", "mina@storefront.test", "Mina"},
		{"u-otto", "otto@storefront.test", "Otto"},
	} {
		usr, err := mk(x[0], x[1], x[2], "Passw0rd!")
		if err != nil {
			return err
		}
		users = append(users, usr)
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(tx.Rebind(`
			INSERT INTO users(id,email,name,password_hash,role,created_at)
			VALUES(?,?,?,?,'SELLER',?)
			ON CONFLICT(email) DO NOTHING
		`), x.ID, x.Email, x.Name, x.Hash, formatTime(time.Now())); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SeedDemo inserts a starter catalog when the products table is empty.
func SeedDemo(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	l := applog.Logger()
	l.Info().Str("action", "seed.demo").Msg("inserting demo products")

	now := formatTime(time.Now())
	rows := []struct {
		title, desc, category, seller string
		price, stock                  int64
	}{
		{"Bunny Mug", "Hand-glazed ceramic mug with bunny ears.", "Ceramics", "u-mina", 1800, 12},
		{"Cloud Planter", "Small planter shaped like a cloud.", "Ceramics", "u-mina", 2400, 5},
		{"Star Earrings", "Tiny gold-plated star studs.", "Jewelry", "u-otto", 1500, 20},
		{"Moon Necklace", "Crescent moon pendant on a fine chain.", "Jewelry", "u-otto", 3200, 2},
		{"Frog Plush", "Soft frog plush, 20cm.", "Toys", "u-mina", 2200, 0},
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, r := range rows {
		if _, err := tx.Exec(tx.Rebind(`
			INSERT INTO products(title,description,price,stock,category,seller_id,created_at)
			VALUES(?,?,?,?,?,?,?)
		`), r.title, r.desc, r.price, r.stock, r.category, r.seller, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

package order

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/listquery"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict means a repeated write carried different data than the row
	// already stored under the same key.
	ErrConflict = errors.New("conflicts with an existing record")
)

// DBPool matches the methods from *pgxpool.Pool that we use.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type Repository interface {
	CreateOrder(ctx context.Context, in NewOrder) (Order, error)
	CreateOrderItem(ctx context.Context, in NewItem) (Item, error)
	CreatePayment(ctx context.Context, in NewPayment) (Payment, error)
	GetByID(ctx context.Context, orderID string) (Order, error)
	List(ctx context.Context, q listquery.Query) (listquery.Page[Order], error)
}

// ListSpec is what GET /api/orders accepts.
var ListSpec = listquery.Spec{
	Filters: []string{"customerId", "status"},
	Sorts: map[string]string{
		"createdAt": "created_at",
		"total":     "total",
	},
	DefaultSort: "-createdAt",
}

const orderColumns = `id, COALESCE(submission_token, ''), customer_id, COALESCE(pet_id, ''),
	COALESCE(amends_order_id, ''), status, subtotal::float8, tax::float8, total::float8,
	paid_amount::float8, created_at`

const itemColumns = `id, order_id, line_no, item_id, name, unit_price::float8, quantity,
	subtotal::float8, created_at`

const paymentColumns = `id, order_id, customer_id, method_id, amount::float8, paid_at, note, created_at`

// PostgresRepository writes orders straight into the clinic database. Every
// insert is keyed so that repeating it returns the existing row.
type PostgresRepository struct {
	pool DBPool
	now  func() time.Time
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool, now: time.Now}
}

func (r *PostgresRepository) CreateOrder(ctx context.Context, in NewOrder) (Order, error) {
	if err := in.Validate(); err != nil {
		return Order{}, err
	}

	o := Order{
		ID:              uuid.NewString(),
		SubmissionToken: in.SubmissionToken,
		CustomerID:      in.CustomerID,
		PetID:           in.PetID,
		AmendsOrderID:   in.AmendsOrderID,
		Status:          statusFor(in),
		Subtotal:        in.Subtotal,
		Tax:             in.Tax,
		Total:           in.Total,
		PaidAmount:      in.PaidAmount,
		CreatedAt:       r.now().UTC(),
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stored, err := scanOrder(tx.QueryRow(ctx, `
		INSERT INTO orders (id, submission_token, customer_id, pet_id, amends_order_id, status,
			subtotal, tax, total, paid_amount, created_at)
		VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9, $10, $11)
		ON CONFLICT (submission_token) DO UPDATE SET submission_token = EXCLUDED.submission_token
		RETURNING `+orderColumns,
		o.ID, o.SubmissionToken, o.CustomerID, o.PetID, o.AmendsOrderID, o.Status,
		o.Subtotal, o.Tax, o.Total, o.PaidAmount, o.CreatedAt,
	))
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", mapPgError(err))
	}
	if !sameOrder(stored, o) {
		return Order{}, fmt.Errorf("order for submission %s: %w", in.SubmissionToken, ErrConflict)
	}
	o = stored

	if in.AmendsOrderID != "" {
		tag, err := tx.Exec(ctx, `UPDATE orders SET status = $1 WHERE id = $2 AND id <> $3`,
			StatusAmended, in.AmendsOrderID, o.ID)
		if err != nil {
			return Order{}, fmt.Errorf("mark amended: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return Order{}, fmt.Errorf("amended order %s: %w", in.AmendsOrderID, ErrNotFound)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, fmt.Errorf("commit: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) CreateOrderItem(ctx context.Context, in NewItem) (Item, error) {
	if err := in.Validate(); err != nil {
		return Item{}, err
	}

	it := Item{
		ID:        uuid.NewString(),
		OrderID:   in.OrderID,
		LineNo:    in.LineNo,
		ItemID:    in.ItemID,
		Name:      in.Name,
		UnitPrice: in.UnitPrice,
		Quantity:  in.Quantity,
		Subtotal:  in.Subtotal(),
		CreatedAt: r.now().UTC(),
	}

	stored, err := scanItem(r.pool.QueryRow(ctx, `
		INSERT INTO order_items (id, order_id, line_no, item_id, name, unit_price, quantity, subtotal, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (order_id, line_no) DO UPDATE SET order_id = EXCLUDED.order_id
		RETURNING `+itemColumns,
		it.ID, it.OrderID, it.LineNo, it.ItemID, it.Name, it.UnitPrice, it.Quantity, it.Subtotal, it.CreatedAt,
	))
	if err != nil {
		return Item{}, fmt.Errorf("insert order_item: %w", mapPgError(err))
	}
	if stored.ItemID != it.ItemID || stored.Quantity != it.Quantity || !sameAmount(stored.UnitPrice, it.UnitPrice) {
		return Item{}, fmt.Errorf("line %d of order %s: %w", it.LineNo, it.OrderID, ErrConflict)
	}
	return stored, nil
}

func (r *PostgresRepository) CreatePayment(ctx context.Context, in NewPayment) (Payment, error) {
	if err := in.Validate(); err != nil {
		return Payment{}, err
	}

	p := Payment{
		ID:         in.ID,
		OrderID:    in.OrderID,
		CustomerID: in.CustomerID,
		MethodID:   in.MethodID,
		Amount:     in.Amount,
		PaidAt:     in.PaidAt,
		Note:       in.Note,
		CreatedAt:  r.now().UTC(),
	}
	if p.PaidAt.IsZero() {
		p.PaidAt = p.CreatedAt
	}

	stored, err := scanPayment(r.pool.QueryRow(ctx, `
		INSERT INTO payments (id, order_id, customer_id, method_id, amount, paid_at, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		RETURNING `+paymentColumns,
		p.ID, p.OrderID, p.CustomerID, p.MethodID, p.Amount, p.PaidAt, p.Note, p.CreatedAt,
	))
	if err != nil {
		return Payment{}, fmt.Errorf("insert payment: %w", mapPgError(err))
	}
	if stored.OrderID != p.OrderID || stored.MethodID != p.MethodID || !sameAmount(stored.Amount, p.Amount) {
		return Payment{}, fmt.Errorf("payment %s: %w", p.ID, ErrConflict)
	}
	return stored, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, orderID string) (Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("select order: %w", err)
	}

	if o.Items, err = r.items(ctx, o.ID); err != nil {
		return Order{}, err
	}
	if o.Payments, err = r.payments(ctx, o.ID); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *PostgresRepository) List(ctx context.Context, q listquery.Query) (listquery.Page[Order], error) {
	var where listquery.Where
	if v := q.Filters["customerId"]; v != "" {
		where.Eq("customer_id", v)
	}
	if v := q.Filters["status"]; v != "" {
		where.Eq("status", v)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders`+where.SQL(), where.Args...).Scan(&total); err != nil {
		return listquery.Page[Order]{}, fmt.Errorf("count orders: %w", err)
	}

	limit, args := where.Paginate(q)
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders`+where.SQL()+q.OrderBy(ListSpec, "id")+limit, args...)
	if err != nil {
		return listquery.Page[Order]{}, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return listquery.Page[Order]{}, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return listquery.Page[Order]{}, fmt.Errorf("rows: %w", err)
	}
	return listquery.NewPage(orders, q, total), nil
}

func (r *PostgresRepository) items(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+itemColumns+` FROM order_items WHERE order_id = $1 ORDER BY line_no`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order_item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return items, nil
}

func (r *PostgresRepository) payments(ctx context.Context, orderID string) ([]Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 ORDER BY paid_at, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return payments, nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.SubmissionToken, &o.CustomerID, &o.PetID, &o.AmendsOrderID, &o.Status,
		&o.Subtotal, &o.Tax, &o.Total, &o.PaidAmount, &o.CreatedAt)
	return o, err
}

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.OrderID, &it.LineNo, &it.ItemID, &it.Name,
		&it.UnitPrice, &it.Quantity, &it.Subtotal, &it.CreatedAt)
	return it, err
}

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.CustomerID, &p.MethodID,
		&p.Amount, &p.PaidAt, &p.Note, &p.CreatedAt)
	return p, err
}

// sameOrder compares what the caller sent with the stored header. Status and
// timestamps are the database's business.
func sameOrder(stored, sent Order) bool {
	return stored.CustomerID == sent.CustomerID &&
		stored.PetID == sent.PetID &&
		stored.AmendsOrderID == sent.AmendsOrderID &&
		sameAmount(stored.Subtotal, sent.Subtotal) &&
		sameAmount(stored.Tax, sent.Tax) &&
		sameAmount(stored.Total, sent.Total) &&
		sameAmount(stored.PaidAmount, sent.PaidAmount)
}

// sameAmount treats amounts as equal once rounded to the stored cents.
func sameAmount(a, b float64) bool {
	return math.Abs(a-b) <= 0.005+1e-9
}

// mapPgError turns a foreign key violation (unknown order or customer) into
// ErrNotFound.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, ErrNotFound)
	}
	return err
}

package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/listquery"
)

// DBPool matches the methods from *pgxpool.Pool that we use.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Repository interface {
	Get(ctx context.Context, id string) (Item, error)
	List(ctx context.Context, q listquery.Query) (listquery.Page[Item], error)
	Create(ctx context.Context, in Input) (Item, error)
	Update(ctx context.Context, id string, in Input) (Item, error)
	Delete(ctx context.Context, id string) error
}

var ListSpec = listquery.Spec{
	Filters: []string{"kind", "active"},
	Sorts: map[string]string{
		"name":      "name",
		"price":     "unit_price",
		"stock":     "stock",
		"createdAt": "created_at",
	},
	DefaultSort: "name",
}

const itemColumns = `id, kind, name, description, unit_price::float8, stock, active, created_at, updated_at`

type PostgresRepository struct {
	pool DBPool
	now  func() time.Time
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool, now: time.Now}
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Item, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM catalog_items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, fmt.Errorf("select catalog item: %w", err)
	}
	return it, nil
}

func (r *PostgresRepository) List(ctx context.Context, q listquery.Query) (listquery.Page[Item], error) {
	var where listquery.Where
	if v := q.Filters["kind"]; v != "" {
		where.Eq("kind", v)
	}
	if v := q.Filters["active"]; v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return listquery.Page[Item]{}, fmt.Errorf("%w: active must be true or false", listquery.ErrInvalid)
		}
		where.Eq("active", active)
	}
	where.Search(q.Search, "name", "description")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM catalog_items`+where.SQL(), where.Args...).Scan(&total); err != nil {
		return listquery.Page[Item]{}, fmt.Errorf("count catalog items: %w", err)
	}

	limit, args := where.Paginate(q)
	rows, err := r.pool.Query(ctx,
		`SELECT `+itemColumns+` FROM catalog_items`+where.SQL()+q.OrderBy(ListSpec, "id")+limit, args...)
	if err != nil {
		return listquery.Page[Item]{}, fmt.Errorf("select catalog items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return listquery.Page[Item]{}, fmt.Errorf("scan catalog item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return listquery.Page[Item]{}, fmt.Errorf("rows: %w", err)
	}
	return listquery.NewPage(items, q, total), nil
}

func (r *PostgresRepository) Create(ctx context.Context, in Input) (Item, error) {
	if err := in.Normalize(); err != nil {
		return Item{}, err
	}
	now := r.now().UTC()
	it := Item{
		ID:          uuid.NewString(),
		Kind:        in.Kind,
		Name:        in.Name,
		Description: in.Description,
		UnitPrice:   in.UnitPrice,
		Stock:       in.Stock,
		Active:      *in.Active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO catalog_items (id, kind, name, description, unit_price, stock, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, it.ID, it.Kind, it.Name, it.Description, it.UnitPrice, it.Stock, it.Active, it.CreatedAt, it.UpdatedAt)
	if err != nil {
		return Item{}, fmt.Errorf("insert catalog item: %w", err)
	}
	return it, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, in Input) (Item, error) {
	if err := in.Normalize(); err != nil {
		return Item{}, err
	}
	it, err := scanItem(r.pool.QueryRow(ctx, `
		UPDATE catalog_items
		SET kind = $2, name = $3, description = $4, unit_price = $5, stock = $6, active = $7, updated_at = $8
		WHERE id = $1
		RETURNING `+itemColumns,
		id, in.Kind, in.Name, in.Description, in.UnitPrice, in.Stock, *in.Active, r.now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, fmt.Errorf("update catalog item: %w", err)
	}
	return it, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM catalog_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete catalog item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.Kind, &it.Name, &it.Description, &it.UnitPrice,
		&it.Stock, &it.Active, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/listquery"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrPetNotOwned  = errors.New("pet does not belong to customer")
)

type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type Pet struct {
	ID         string `json:"id"`
	CustomerID string `json:"customerId"`
	Name       string `json:"name"`
	Species    string `json:"species,omitempty"`
	Breed      string `json:"breed,omitempty"`
}

// DBPool matches the methods from *pgxpool.Pool that we use.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var ListSpec = listquery.Spec{
	Sorts: map[string]string{
		"name":      "name",
		"createdAt": "created_at",
	},
	DefaultSort: "name",
}

type Repository struct {
	pool DBPool
}

func NewRepository(pool DBPool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetCustomer(ctx context.Context, id string) (Customer, error) {
	var c Customer
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, phone FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, fmt.Errorf("customer %s: %w", id, ErrNotFound)
		}
		return Customer{}, fmt.Errorf("select customer: %w", err)
	}
	return c, nil
}

func (r *Repository) List(ctx context.Context, q listquery.Query) (listquery.Page[Customer], error) {
	var where listquery.Where
	where.Search(q.Search, "name", "email", "phone")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM customers`+where.SQL(), where.Args...).Scan(&total); err != nil {
		return listquery.Page[Customer]{}, fmt.Errorf("count customers: %w", err)
	}

	limit, args := where.Paginate(q)
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, phone FROM customers`+where.SQL()+q.OrderBy(ListSpec, "id")+limit, args...)
	if err != nil {
		return listquery.Page[Customer]{}, fmt.Errorf("select customers: %w", err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone); err != nil {
			return listquery.Page[Customer]{}, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return listquery.Page[Customer]{}, fmt.Errorf("rows: %w", err)
	}
	return listquery.NewPage(out, q, total), nil
}

func (r *Repository) GetPet(ctx context.Context, id string) (Pet, error) {
	var p Pet
	err := r.pool.QueryRow(ctx,
		`SELECT id, customer_id, name, species, breed FROM pets WHERE id = $1`, id).
		Scan(&p.ID, &p.CustomerID, &p.Name, &p.Species, &p.Breed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Pet{}, fmt.Errorf("pet %s: %w", id, ErrNotFound)
		}
		return Pet{}, fmt.Errorf("select pet: %w", err)
	}
	return p, nil
}

// PetOf loads a pet and checks that it belongs to customerID.
func (r *Repository) PetOf(ctx context.Context, customerID, petID string) (Pet, error) {
	p, err := r.GetPet(ctx, petID)
	if err != nil {
		return Pet{}, err
	}
	if p.CustomerID != customerID {
		return Pet{}, ErrPetNotOwned
	}
	return p, nil
}

func (r *Repository) ListPets(ctx context.Context, customerID string) ([]Pet, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, customer_id, name, species, breed
		FROM pets
		WHERE customer_id = $1
		ORDER BY name, id
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("select pets: %w", err)
	}
	defer rows.Close()

	pets := []Pet{}
	for rows.Next() {
		var p Pet
		if err := rows.Scan(&p.ID, &p.CustomerID, &p.Name, &p.Species, &p.Breed); err != nil {
			return nil, fmt.Errorf("scan pet: %w", err)
		}
		pets = append(pets, p)
	}
	return pets, rows.Err()
}

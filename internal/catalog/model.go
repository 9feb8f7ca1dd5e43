package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("catalog item not found")
	ErrInvalid  = errors.New("invalid catalog item")
	ErrInactive = errors.New("catalog item is not for sale")
)

type Kind string

const (
	KindProduct Kind = "product"
	KindService Kind = "service"
)

// Item is something the clinic sells: a product from stock or a service
// such as a consultation.
type Item struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	UnitPrice   float64   `json:"unitPrice"`
	Stock       int       `json:"stock"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Input is the writable part of an Item.
type Input struct {
	Kind        Kind    `json:"kind"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unitPrice"`
	Stock       int     `json:"stock"`
	Active      *bool   `json:"active"`
}

func (in *Input) Normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Kind == "" {
		in.Kind = KindProduct
	}
	if in.Active == nil {
		active := true
		in.Active = &active
	}

	switch {
	case in.Kind != KindProduct && in.Kind != KindService:
		return fmt.Errorf("%w: kind must be product or service", ErrInvalid)
	case in.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalid)
	case in.UnitPrice < 0:
		return fmt.Errorf("%w: unitPrice must not be negative", ErrInvalid)
	case in.Stock < 0:
		return fmt.Errorf("%w: stock must not be negative", ErrInvalid)
	}
	return nil
}

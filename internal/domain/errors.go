package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrCartEmpty       = errors.New("cart is empty")
	ErrProductNotFound = errors.New("product not found")
	ErrAlreadyPaid     = errors.New("order is already paid")
)

// ValidationError carries every specific violation so the caller can fix
// all of them at once; it is never partially applied.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// UnavailableProductsError reports cart lines whose product was deleted
// since being added. The ids are surfaced, never silently dropped.
type UnavailableProductsError struct {
	ProductIDs []uint64
}

func (e *UnavailableProductsError) Error() string {
	ids := make([]string, len(e.ProductIDs))
	for i, id := range e.ProductIDs {
		ids[i] = fmt.Sprintf("%d", id)
	}
	return "some products in the cart are no longer available: " + strings.Join(ids, ", ")
}

// StateConflictError names the current and attempted state of an illegal
// transition.
type StateConflictError struct {
	Current   OrderStatus
	Attempted OrderStatus
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("cannot move order from %q to %q", e.Current, e.Attempted)
}

// InvalidStatusError rejects unrecognized status values, naming the allowed set.
type InvalidStatusError struct {
	Value string
}

func (e *InvalidStatusError) Error() string {
	allowed := make([]string, len(OrderStatuses))
	for i, s := range OrderStatuses {
		allowed[i] = string(s)
	}
	return fmt.Sprintf("invalid status %q, must be one of: %s", e.Value, strings.Join(allowed, ", "))
}

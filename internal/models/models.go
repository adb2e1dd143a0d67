package models

import "time"

// Record is a persisted entity with a stable id and an insertion-ordered sequence number.
type Record interface {
	ID() string
	Sequence() int
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Validate() error
}

// Store is the data access contract for a [Record] type.
//
// List accepts column filters; an empty map returns every record in sequence order.
// Recent returns at most limit records, newest first.
type Store[T Record] interface {
	Create(record T) error
	Get(id string) (T, error)
	Update(record T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error)
	Recent(limit int) ([]T, error)
}

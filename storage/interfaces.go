package storage

import "fal-scraper/models"

// RowWriter is the interface any report sink must satisfy. The core hands
// it a complete, ordered row set including error placeholders.
type RowWriter interface {
	WriteRows(rows []*models.Row) error
	Close() error
}

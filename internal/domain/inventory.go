package domain

import "time"

// InventoryRecord is the ledger entry mirroring a sweet's stock movements.
// It is derived from catalog mutations and is not the source of truth for
// sellable stock.
type InventoryRecord struct {
	ID        string    `json:"id"`
	SweetID   string    `json:"sweetId"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updatedAt"`
	Sweet     *Sweet    `json:"sweet,omitempty"`
}

package domain

// Product is a catalog entry. Price is in currency minor units (cents).
// Stock is only ever mutated through the inventory ledger's conditional
// decrement, so it never goes negative.
type Product struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Stock int    `json:"stock"`
}

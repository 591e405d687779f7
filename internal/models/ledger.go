package models

// Account is a ledger account resolved by the persistence boundary.
type Account struct {
	ID       int64
	Name     string
	Currency string
	IsCash   bool
}

// Category is a spending category resolved by the persistence boundary.
// A zero ID means "no category".
type Category struct {
	ID   int64
	Name string
}

// None reports whether the category is absent.
func (c Category) None() bool {
	return c.ID == 0
}

// Tag is a transaction tag resolved by the persistence boundary.
type Tag struct {
	ID   int64
	Name string
}

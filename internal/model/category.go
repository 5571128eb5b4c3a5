package model

import "time"

// Category represents a user-defined spending category.
type Category struct {
	CreatedAt time.Time
	Name      string
	UserID    string
	ID        int64
	IsActive  bool
}

// Account represents a bank account owned by a user.
type Account struct {
	CreatedAt time.Time
	ID        string
	UserID    string
	Name      string
	Currency  string
}

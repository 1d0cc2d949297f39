package domain

import "time"

// DefaultWallet is the balance every new account starts with.
const DefaultWallet int64 = 50000

type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Wallet       int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

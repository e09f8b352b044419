// Package models contains the persistent data structures of the server.
package models

import "time"

// Voucher is a single-use Wi-Fi access credential: a hotspot username/password
// pair, the opaque token end users redeem it with, and its lifecycle flags.
//
// Identity fields (ID, Token, Username, Password, LoginURL, CreatedAt) never
// change after creation. Provisioned and Used are one-way flags: false→true
// once, never back. Rows are never deleted; the table doubles as an audit
// trail of every credential ever handed out.
type Voucher struct {
	ID          int64
	Token       string
	Username    string
	Password    string
	LoginURL    string
	CreatedAt   time.Time
	Provisioned bool
	Used        bool
	UsedAt      *time.Time
}

package models

// blacklist.go - the sniper's token blocklist (spec §4.6 safety validator:
// "token blocklist" check). Adapted from the teacher's BlacklistEntry,
// keyed by symbol for a CEX pair; here it's keyed by mint address, the
// only stable identifier for a freshly-launched Solana token.

import "time"

// BlocklistEntry is one operator-maintained rejected mint.
type BlocklistEntry struct {
	ID        int       `json:"id" db:"id"`
	Mint      string    `json:"mint" db:"mint"`
	Reason    string    `json:"reason" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

package streaming

import "time"

// AccountUpdate is a decoded Geyser account-update notification, handed
// to the dispatcher for cache-layer parsing (spec §4.2).
type AccountUpdate struct {
	Pubkey   string
	Owner    string
	Data     []byte
	Slot     uint64
	Lamports uint64
	WriteVer uint64
	TxSig    string
}

// SlotUpdate is a Geyser slot-status notification, used to drive
// blockhash/staleness bookkeeping.
type SlotUpdate struct {
	Slot   uint64
	Parent uint64
	Status string // processed, confirmed, finalized
}

// ShredEntry is a pre-execution transaction observed on the shred
// stream (spec §4.1 "shred stream... surfaces transactions before they
// land, feeding the sniper's fast path").
type ShredEntry struct {
	Slot         uint64
	Transactions [][]byte
	ObservedAt   time.Time
}

// BlockMetaUpdate is a decoded blocks_meta notification (spec §4.1
// "subscribe_blocks_meta(name, callback(slot, blockhash, block_height))"),
// the sole feed for the blockhash cache (spec §4.2).
type BlockMetaUpdate struct {
	Slot        uint64
	Blockhash   string
	BlockHeight uint64
	ParentSlot  uint64
}

// AccountHandler is invoked by the dispatcher for each decoded account
// update. Handlers run on the dispatcher's worker pool and must not
// block.
type AccountHandler func(AccountUpdate)

// SlotHandler is invoked for each slot update.
type SlotHandler func(SlotUpdate)

// BlockMetaHandler is invoked for each blocks_meta update.
type BlockMetaHandler func(BlockMetaUpdate)

// ShredHandler is invoked for each shred-stream entry.
type ShredHandler func(ShredEntry)

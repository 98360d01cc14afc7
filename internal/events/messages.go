package events

import (
	"time"

	"solexec/internal/models"
)

// MessageType identifies a dashboard event frame.
type MessageType string

const (
	// MessageTypeOpportunity is emitted when a detector finds a
	// cross-venue spread or a new-token snipe candidate.
	MessageTypeOpportunity MessageType = "opportunity"

	// MessageTypeStrikeResult is emitted when a bundle executor
	// terminates an opportunity (success or failure).
	MessageTypeStrikeResult MessageType = "strikeResult"

	// MessageTypeNotification carries the spec §7 notification kinds
	// (strike success/failure, safety rejection, new token, circuit
	// breaker, auto-sell, fatal config).
	MessageTypeNotification MessageType = "notification"

	// MessageTypeStatsUpdate is emitted after a strike completes and
	// the rollup changes.
	MessageTypeStatsUpdate MessageType = "statsUpdate"

	// MessageTypeNewToken is emitted once per persisted detection
	// (spec §4.6 "emit the event").
	MessageTypeNewToken MessageType = "newTokenDetected"

	// MessageTypeHFTPositionUpdate is emitted by the fast monitor loop
	// on every tick and on terminal state transitions (spec §4.6 "Fast
	// monitor loop... emit a live update").
	MessageTypeHFTPositionUpdate MessageType = "hftPositionUpdate"

	// MessageTypeWhaleSwap is emitted once per detected large-notional
	// swap on a registered pool (SPEC_FULL §12); informational only.
	MessageTypeWhaleSwap MessageType = "whaleSwap"
)

// BaseMessage is embedded by every dashboard frame.
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// OpportunityMessage reports a detected opportunity.
type OpportunityMessage struct {
	BaseMessage
	Data *models.Opportunity `json:"data"`
}

// NewOpportunityMessage builds an OpportunityMessage.
func NewOpportunityMessage(opp *models.Opportunity) *OpportunityMessage {
	return &OpportunityMessage{
		BaseMessage: BaseMessage{Type: MessageTypeOpportunity, Timestamp: time.Now()},
		Data:        opp,
	}
}

// StrikeResultMessage reports the outcome of an attempted strike.
type StrikeResultMessage struct {
	BaseMessage
	Data *models.StrikeResult `json:"data"`
}

// NewStrikeResultMessage builds a StrikeResultMessage.
func NewStrikeResultMessage(result *models.StrikeResult) *StrikeResultMessage {
	return &StrikeResultMessage{
		BaseMessage: BaseMessage{Type: MessageTypeStrikeResult, Timestamp: time.Now()},
		Data:        result,
	}
}

// NotificationMessage wraps a models.Notification for the wire.
type NotificationMessage struct {
	BaseMessage
	Data *models.Notification `json:"data"`
}

// NewNotificationMessage builds a NotificationMessage.
func NewNotificationMessage(n *models.Notification) *NotificationMessage {
	return &NotificationMessage{
		BaseMessage: BaseMessage{Type: MessageTypeNotification, Timestamp: time.Now()},
		Data:        n,
	}
}

// StatsUpdateMessage wraps a models.Stats rollup for the wire.
type StatsUpdateMessage struct {
	BaseMessage
	Data *models.Stats `json:"data"`
}

// NewStatsUpdateMessage builds a StatsUpdateMessage.
func NewStatsUpdateMessage(stats *models.Stats) *StatsUpdateMessage {
	return &StatsUpdateMessage{
		BaseMessage: BaseMessage{Type: MessageTypeStatsUpdate, Timestamp: time.Now()},
		Data:        stats,
	}
}

// NewTokenMessage reports a freshly detected token.
type NewTokenMessage struct {
	BaseMessage
	Data *models.DetectedToken `json:"data"`
}

// NewNewTokenMessage builds a NewTokenMessage.
func NewNewTokenMessage(token *models.DetectedToken) *NewTokenMessage {
	return &NewTokenMessage{
		BaseMessage: BaseMessage{Type: MessageTypeNewToken, Timestamp: time.Now()},
		Data:        token,
	}
}

// HFTPositionUpdate is one fast monitor loop tick or terminal transition
// for a single position (spec §4.6).
type HFTPositionUpdate struct {
	Mint             string  `json:"mint"`
	Status           string  `json:"status"`
	Reason           string  `json:"reason,omitempty"`
	CurrentPnlPct    float64 `json:"current_pnl_pct"`
	PeakPnlPct       float64 `json:"peak_pnl_pct"`
	SecondsRemaining int     `json:"seconds_remaining"`
}

// HFTPositionUpdateMessage wraps an HFTPositionUpdate for the wire.
type HFTPositionUpdateMessage struct {
	BaseMessage
	Data *HFTPositionUpdate `json:"data"`
}

// NewHFTPositionUpdateMessage builds an HFTPositionUpdateMessage.
func NewHFTPositionUpdateMessage(u *HFTPositionUpdate) *HFTPositionUpdateMessage {
	return &HFTPositionUpdateMessage{
		BaseMessage: BaseMessage{Type: MessageTypeHFTPositionUpdate, Timestamp: time.Now()},
		Data:        u,
	}
}

// WhaleSwapMessage wraps a models.WhaleSwap for the wire.
type WhaleSwapMessage struct {
	BaseMessage
	Data *models.WhaleSwap `json:"data"`
}

// NewWhaleSwapMessage builds a WhaleSwapMessage.
func NewWhaleSwapMessage(w *models.WhaleSwap) *WhaleSwapMessage {
	return &WhaleSwapMessage{
		BaseMessage: BaseMessage{Type: MessageTypeWhaleSwap, Timestamp: time.Now()},
		Data:        w,
	}
}

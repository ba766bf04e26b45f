package domain

import (
	"encoding/json"
	"time"
)

// Bus channels.
const (
	ChannelListings    = "dm:listing"
	ChannelDrops       = "dm:drop"
	ChannelSubmissions = "dm:submission"
)

// EventType classifies messages published on the bus.
type EventType string

const (
	EventListingState EventType = "listing_state"
	EventDropState    EventType = "drop_state"
	EventSubmission   EventType = "submission"
)

// Event is the envelope published on the signal bus and forwarded verbatim
// to websocket clients.
type Event struct {
	Type     EventType       `json:"type"`
	TargetID string          `json:"target_id"`
	At       time.Time       `json:"at"`
	Payload  json.RawMessage `json:"payload"`
}

// SubmissionKind names the mutating action behind a submission.
type SubmissionKind string

const (
	SubmissionBid      SubmissionKind = "bid"
	SubmissionBuyout   SubmissionKind = "buyout"
	SubmissionPurchase SubmissionKind = "purchase"
	SubmissionClaim    SubmissionKind = "claim"
)

// SubmissionEvent reports the result of a bid, buyout, purchase or claim.
type SubmissionEvent struct {
	Kind      SubmissionKind `json:"kind"`
	TargetID  string         `json:"target_id"`
	Wallet    string         `json:"wallet"`
	OK        bool           `json:"ok"`
	Category  string         `json:"category,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

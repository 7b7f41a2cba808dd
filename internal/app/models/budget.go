package models

import (
	"time"

	"github.com/google/uuid"
)

// BudgetCategory is one percentage slider of the budget step.
type BudgetCategory struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// CategoryAmount is the absolute share of a total budget for one category.
type CategoryAmount struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// BookingConfirmation is returned by the booking collaborator once a
// completed itinerary has been handed off.
type BookingConfirmation struct {
	Reference   uuid.UUID     `json:"reference"`
	SessionID   uuid.UUID     `json:"sessionId"`
	ConfirmedAt time.Time     `json:"confirmedAt"`
	Itinerary   TripItinerary `json:"itinerary"`
}

// Package workorder derives cutting demand from work orders and plans them
// against inventory.
package workorder

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/piwi3910/SteelSys/internal/model"
)

// ErrInvalidTransition is returned for a status change the lifecycle forbids.
var ErrInvalidTransition = errors.New("invalid status transition")

// Status is the lifecycle state of a work order.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusDraft:      {StatusPlanned, StatusCancelled},
	StatusPlanned:    {StatusInProgress, StatusCancelled, StatusDraft},
	StatusInProgress: {StatusCompleted},
}

// CanTransition reports whether a work order may move from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Part is a linear part of a work order, usually one drawing position.
type Part struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Profile    string  `json:"profile"`
	Length     float64 `json:"length"` // mm
	Quantity   int     `json:"quantity"`
	DrawingRef string  `json:"drawing_ref,omitempty"`
}

func NewPart(label, profile string, length float64, qty int) Part {
	return Part{
		ID:       uuid.New().String()[:8],
		Label:    label,
		Profile:  profile,
		Length:   length,
		Quantity: qty,
	}
}

// WorkOrder is a customer job whose parts must be cut from inventory.
type WorkOrder struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"`
	Customer  string    `json:"customer,omitempty"`
	Project   string    `json:"project,omitempty"`
	Status    Status    `json:"status"`
	Parts     []Part    `json:"parts"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func New(number, customer string, parts ...Part) *WorkOrder {
	now := time.Now().UTC()
	return &WorkOrder{
		ID:        uuid.New().String(),
		Number:    number,
		Customer:  customer,
		Status:    StatusDraft,
		Parts:     parts,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the work order to next if the lifecycle allows it.
func (wo *WorkOrder) Transition(next Status) error {
	if !wo.Status.CanTransition(next) {
		return fmt.Errorf("work order %s: %s -> %s: %w", wo.Number, wo.Status, next, ErrInvalidTransition)
	}
	wo.Status = next
	wo.UpdatedAt = time.Now().UTC()
	return nil
}

// Demand converts the parts into required pieces for the optimizer.
func (wo *WorkOrder) Demand() []model.RequiredPiece {
	demand := make([]model.RequiredPiece, 0, len(wo.Parts))
	for _, p := range wo.Parts {
		demand = append(demand, model.RequiredPiece{
			ID:       p.ID,
			Profile:  p.Profile,
			Label:    p.Label,
			PartRef:  p.DrawingRef,
			Length:   p.Length,
			Quantity: p.Quantity,
		})
	}
	return demand
}

// Profiles returns the distinct profiles of the parts, sorted.
func (wo *WorkOrder) Profiles() []string {
	set := make(map[string]bool)
	for _, p := range wo.Parts {
		set[p.Profile] = true
	}
	profiles := make([]string, 0, len(set))
	for p := range set {
		profiles = append(profiles, p)
	}
	sort.Strings(profiles)
	return profiles
}

// Package exchange tracks EDIFACT files moving between this system and a
// trading partner: inbound files are decoded into invoices or orders,
// outbound interchanges are encoded and delivered through a Transport.
package exchange

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arcward/edifact"
)

// Direction is inbound ("input") or outbound ("output")
type Direction string

const (
	Input  Direction = "input"
	Output Direction = "output"
)

// State is the processing state of a Record
type State string

const (
	StateInputReceived   State = "input_received"
	StateInputProcessed  State = "input_processed"
	StateInputError      State = "input_processing_error"
	StateOutputPending   State = "output_pending"
	StateOutputGenerated State = "output_generated"
	StateOutputSent      State = "output_sent"
	StateOutputError     State = "output_error_on_send"
)

var ErrInvalidTransition = errors.New("invalid state transition")

var transitions = map[State][]State{
	StateInputReceived:   {StateInputProcessed, StateInputError},
	StateOutputPending:   {StateOutputGenerated, StateOutputError},
	StateOutputGenerated: {StateOutputSent, StateOutputError},
}

// rollbacks maps a state to the state a record returns to when its
// processing is undone
var rollbacks = map[State]State{
	StateInputProcessed: StateInputReceived,
	StateInputError:     StateInputReceived,
	StateOutputError:    StateOutputPending,
}

// Record is one exchanged file
type Record struct {
	ID        uuid.UUID           `json:"id"`
	Direction Direction           `json:"direction"`
	Type      edifact.MessageType `json:"type,omitempty"`
	Filename  string              `json:"filename"`
	State     State               `json:"state"`
	Error     string              `json:"error,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// NewRecord creates a record in the initial state of its direction
func NewRecord(direction Direction, filename string) *Record {
	now := time.Now().UTC()
	state := StateInputReceived
	if direction == Output {
		state = StateOutputPending
	}
	return &Record{
		ID:        uuid.New(),
		Direction: direction,
		Filename:  filename,
		State:     state,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the record to state. Moving to an error state
// records err.
func (r *Record) Transition(state State, err error) error {
	allowed := transitions[r.State]
	ok := false
	for _, s := range allowed {
		if s == state {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.State, state)
	}
	r.State = state
	r.Error = ""
	if err != nil {
		r.Error = err.Error()
	}
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Rollback returns the record to the state it had before processing
// completed or failed, clearing any error
func (r *Record) Rollback() error {
	prev, ok := rollbacks[r.State]
	if !ok {
		return fmt.Errorf("%w: cannot roll back from %s", ErrInvalidTransition, r.State)
	}
	r.State = prev
	r.Error = ""
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Failed reports whether the record is in an error state
func (r *Record) Failed() bool {
	return r.State == StateInputError || r.State == StateOutputError
}

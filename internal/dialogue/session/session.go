// Package session keeps the per-user state of the contract dialogue.
package session

import (
	"context"
	"encoding/json"
	"time"

	contract "github.com/pravodoc/pravodoc-backend/internal/contract/domain"
	passport "github.com/pravodoc/pravodoc-backend/internal/passport/domain"
)

// State is the step of the dialogue a user is at.
type State string

// Dialogue states. Idle is the state of a user without a session.
const (
	StateIdle                 State = ""
	StateWaitingPassport      State = "waiting_for_passport"
	StateWaitingManual        State = "waiting_for_manual_data"
	StatePassportConfirmation State = "passport_confirmation"
	StateWaitingAmount        State = "waiting_for_amount"
	StateWaitingFirstPayment  State = "waiting_for_first_payment"
	StateConfirmation         State = "confirmation"
)

// Session is the data collected so far for one user.
type Session struct {
	State        State              `json:"state"`
	Passport     *passport.Record   `json:"passport,omitempty"`
	PhotoPath    string             `json:"photo_path,omitempty"`
	TotalAmount  int64              `json:"total_amount,omitempty"`
	FirstPayment time.Time          `json:"first_payment_date,omitempty"`
	Contract     *contract.Contract `json:"contract,omitempty"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Reset clears collected data and moves to state.
func (s *Session) Reset(state State) {
	*s = Session{State: state}
}

// Store persists sessions. Load returns an idle session for unknown users.
type Store interface {
	Load(ctx context.Context, userID string) (*Session, error)
	Save(ctx context.Context, userID string, s *Session) error
	Delete(ctx context.Context, userID string) error
}

func encode(s *Session) ([]byte, error) {
	s.UpdatedAt = time.Now().UTC()
	return json.Marshal(s)
}

func decode(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

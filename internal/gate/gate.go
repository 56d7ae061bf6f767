// Package gate holds the participant flow state: an email is verified, the
// survey is answered, and only then are certificates released.
package gate

import (
	"fmt"

	"github.com/jornadaii/certify/internal/errors"
	"github.com/jornadaii/certify/internal/models"
)

// State is a step of the participant flow
type State string

const (
	Unverified     State = "unverified"
	AwaitingSurvey State = "awaiting_survey"
	Ready          State = "ready"
)

// Valid reports whether s is one of the known states
func (s State) Valid() bool {
	switch s {
	case Unverified, AwaitingSurvey, Ready:
		return true
	}
	return false
}

// Gate is the state of one participant session. It is a plain value: the
// caller owns it and passes it to every operation of the flow.
type Gate struct {
	State      State  `json:"state"`
	Identifier string `json:"identifier,omitempty"`

	// Result is the last evaluation. It is recomputed on every request and
	// never stored in the session.
	Result *models.Eligibility `json:"-"`
}

// New returns a gate in the initial state
func New() Gate {
	return Gate{State: Unverified}
}

// Apply moves an unverified gate forward according to an evaluation. When
// the participant does not meet the attendance minimum the gate stays
// unverified and the missing attendance count is returned.
func (g *Gate) Apply(elig *models.Eligibility) (shortfall int, err error) {
	if g.State != Unverified {
		return 0, errors.Conflictf("no se puede verificar un correo desde el estado %s", g.State)
	}
	if elig == nil {
		return 0, errors.Internalf("nil eligibility")
	}

	g.Result = elig
	if !elig.EligibleGeneral {
		g.Identifier = ""
		return elig.Shortfall(), nil
	}

	g.Identifier = elig.Participant.Email
	if elig.SurveyCompleted {
		g.State = Ready
	} else {
		g.State = AwaitingSurvey
	}
	return 0, nil
}

// CompleteSurvey records a successful survey submission
func (g *Gate) CompleteSurvey() error {
	if g.State != AwaitingSurvey {
		return errors.Conflictf("no hay una encuesta pendiente (estado %s)", g.State)
	}
	g.State = Ready
	if g.Result != nil {
		g.Result.SurveyCompleted = true
	}
	return nil
}

// Reset returns to the initial state and forgets the participant
func (g *Gate) Reset() {
	*g = New()
}

// Require checks that the gate is in state s
func (g *Gate) Require(s State) error {
	if g.State != s {
		return errors.Conflictf("se esperaba el estado %s, el estado actual es %s", s, g.State)
	}
	return nil
}

func (g Gate) String() string {
	if g.Identifier == "" {
		return string(g.State)
	}
	return fmt.Sprintf("%s(%s)", g.State, g.Identifier)
}

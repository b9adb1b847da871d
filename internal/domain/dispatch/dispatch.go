// Package dispatch holds the domain model for recorded sends.
package dispatch

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/oggyb/smsoffice-gateway/smsoffice"
)

type Outcome string

const (
	OutcomeSuccess        Outcome = "SUCCESS"
	OutcomeBadRequest     Outcome = "BAD_REQUEST"
	OutcomeSubscription   Outcome = "SUBSCRIPTION"
	OutcomeInternalServer Outcome = "INTERNAL_SERVER"
)

// Outcomes lists every outcome in a stable order.
var Outcomes = []Outcome{
	OutcomeSuccess,
	OutcomeBadRequest,
	OutcomeSubscription,
	OutcomeInternalServer,
}

// ErrNotFound is returned by repositories when no dispatch matches.
var ErrNotFound = errors.New("dispatch not found")

// Dispatch is the final disposition of one Send call.
type Dispatch struct {
	ID           uuid.UUID
	Sender       string
	Destinations []string
	Content      string
	Outcome      Outcome
	ErrorCode    int
	Detail       string
	CreatedAt    time.Time
}

// New builds an unrecorded dispatch. Destinations and content are kept as
// given; the provider is the one that validates them.
func New(sender, content string, destinations []string) *Dispatch {
	return &Dispatch{
		ID:           uuid.New(),
		Sender:       sender,
		Destinations: append([]string(nil), destinations...),
		Content:      content,
		CreatedAt:    time.Now(),
	}
}

// Record stores the result of a send on the dispatch.
func (d *Dispatch) Record(err error) {
	d.ErrorCode = 0
	d.Detail = ""

	var e *smsoffice.Error
	if !errors.As(err, &e) {
		d.Outcome = OutcomeSuccess
		if err != nil {
			// Send only returns *smsoffice.Error; anything else came from a
			// wrapper and is kept as a bad request.
			d.Outcome = OutcomeBadRequest
			d.Detail = err.Error()
		}
		return
	}

	d.Outcome = FromCategory(e.Category)
	d.ErrorCode = e.Code
	d.Detail = e.Message
}

// Err rebuilds the error a failed dispatch was recorded with.
func (d *Dispatch) Err() error {
	switch d.Outcome {
	case OutcomeBadRequest:
		return &smsoffice.Error{Category: smsoffice.CategoryBadRequest, Code: d.ErrorCode, Message: d.Detail}
	case OutcomeSubscription:
		return &smsoffice.Error{Category: smsoffice.CategorySubscription, Code: d.ErrorCode, Message: d.Detail}
	case OutcomeInternalServer:
		return &smsoffice.Error{Category: smsoffice.CategoryInternalServer, Code: d.ErrorCode, Message: d.Detail}
	default:
		return nil
	}
}

func FromCategory(c smsoffice.Category) Outcome {
	switch c {
	case smsoffice.CategoryBadRequest:
		return OutcomeBadRequest
	case smsoffice.CategorySubscription:
		return OutcomeSubscription
	case smsoffice.CategoryInternalServer:
		return OutcomeInternalServer
	default:
		return OutcomeSuccess
	}
}

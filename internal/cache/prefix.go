package cache

import "fmt"

type Prefix string

const (
	// Outcomes counts sends per dispatch outcome.
	Outcomes Prefix = "outcomes"
	// Idempotency maps a client idempotency key to a dispatch id.
	Idempotency Prefix = "idempotency"
)

func (p Prefix) Key(id string) string {
	return fmt.Sprintf("%s:%s", p, id)
}

package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefix_Key(t *testing.T) {
	assert.Equal(t, "outcomes:SUCCESS", Outcomes.Key("SUCCESS"))
	assert.Equal(t, "idempotency:abc", Idempotency.Key("abc"))
}

package dispatchgorm

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/oggyb/smsoffice-gateway/internal/domain/dispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestMapper_RoundTrip(t *testing.T) {
	d := dispatch.New("T", "hello", []string{"+995555000001", "+995555000002"})
	d.Outcome = dispatch.OutcomeSubscription
	d.ErrorCode = 80
	d.Detail = "API key isn't valid"
	d.CreatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	m := fromDomain(d)
	assert.Equal(t, []string{"+995555000001", "+995555000002"}, m.Destinations)
	assert.Equal(t, "SUBSCRIPTION", m.Outcome)

	assert.Equal(t, d, toDomain(m))
}

func TestMapper_EmptyDestinations(t *testing.T) {
	m := fromDomain(dispatch.New("T", "hello", nil))
	assert.NotNil(t, m.Destinations)
	assert.Empty(t, m.Destinations)
	assert.Empty(t, toDomain(m).Destinations)
}

// Destinations go through the column serializer the same way GORM writes
// and reads them.
func TestDestinations_ColumnRoundTrip(t *testing.T) {
	s, err := schema.Parse(&DispatchModel{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	field := s.LookUpField("Destinations")
	require.NotNil(t, field)

	cases := map[string][]string{
		"none":          {},
		"single empty":  {""},
		"embedded sep":  {"+995555000001,+995555000002"},
		"blank entries": {"", "+995555000001", ""},
	}

	for name, destinations := range cases {
		t.Run(name, func(t *testing.T) {
			m := fromDomain(dispatch.New("T", "hello", destinations))

			stored, err := schema.JSONSerializer{}.Value(context.Background(), field, reflect.ValueOf(m), m.Destinations)
			require.NoError(t, err)

			var back DispatchModel
			require.NoError(t, schema.JSONSerializer{}.Scan(context.Background(), field, reflect.ValueOf(&back), stored))

			assert.Equal(t, destinations, back.Destinations)
			assert.Len(t, toDomain(&back).Destinations, len(destinations))
		})
	}
}

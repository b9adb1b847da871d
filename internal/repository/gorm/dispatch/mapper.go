package dispatchgorm

import (
	"github.com/oggyb/smsoffice-gateway/internal/domain/dispatch"
)

func toDomain(m *DispatchModel) *dispatch.Dispatch {
	return &dispatch.Dispatch{
		ID:           m.ID,
		Sender:       m.Sender,
		Destinations: append([]string(nil), m.Destinations...),
		Content:      m.Content,
		Outcome:      dispatch.Outcome(m.Outcome),
		ErrorCode:    m.ErrorCode,
		Detail:       m.Detail,
		CreatedAt:    m.CreatedAt,
	}
}

func toDomainMany(models []DispatchModel) []*dispatch.Dispatch {
	out := make([]*dispatch.Dispatch, len(models))
	for i := range models {
		out[i] = toDomain(&models[i])
	}
	return out
}

func fromDomain(d *dispatch.Dispatch) *DispatchModel {
	// The column is NOT NULL; no destinations is stored as [].
	destinations := make([]string, len(d.Destinations))
	copy(destinations, d.Destinations)

	return &DispatchModel{
		ID:           d.ID,
		Sender:       d.Sender,
		Destinations: destinations,
		Content:      d.Content,
		Outcome:      string(d.Outcome),
		ErrorCode:    d.ErrorCode,
		Detail:       d.Detail,
		CreatedAt:    d.CreatedAt,
	}
}

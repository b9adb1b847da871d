package response

import (
	"time"

	"github.com/oggyb/smsoffice-gateway/internal/domain/dispatch"
)

type WelcomePayload struct {
	Message string `json:"message"`
}

type HealthPayload struct {
	Status string `json:"status"`
}

type WelcomeResponse struct {
	Success   bool           `json:"success"`
	Data      WelcomePayload `json:"data"`
	Timestamp string         `json:"timestamp"`
}

type HealthResponse struct {
	Success   bool          `json:"success"`
	Data      HealthPayload `json:"data"`
	Timestamp string        `json:"timestamp"`
}

type SchedulerControlPayload struct {
	Message string `json:"message"`
}

type SchedulerControlResponse struct {
	Success   bool                    `json:"success"`
	Data      SchedulerControlPayload `json:"data"`
	Timestamp string                  `json:"timestamp"`
}

// DispatchDTO is the public-facing representation of a dispatch.
type DispatchDTO struct {
	ID           string    `json:"id"`
	Sender       string    `json:"sender"`
	Destinations []string  `json:"destinations"`
	Content      string    `json:"content"`
	Outcome      string    `json:"outcome"`
	ErrorCode    int       `json:"errorCode"`
	Detail       string    `json:"detail,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type DispatchResponse struct {
	Success   bool        `json:"success"`
	Data      DispatchDTO `json:"data"`
	Timestamp string      `json:"timestamp"`
}

type DispatchHistoryPayload struct {
	Items []DispatchDTO `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type DispatchHistoryResponse struct {
	Success   bool                   `json:"success"`
	Data      DispatchHistoryPayload `json:"data"`
	Timestamp string                 `json:"timestamp"`
}

type StatsResponse struct {
	Success   bool             `json:"success"`
	Data      map[string]int64 `json:"data"`
	Timestamp string           `json:"timestamp"`
}

// FromDispatch converts a domain dispatch into its DTO.
func FromDispatch(d *dispatch.Dispatch) DispatchDTO {
	destinations := d.Destinations
	if destinations == nil {
		destinations = []string{}
	}
	return DispatchDTO{
		ID:           d.ID.String(),
		Sender:       d.Sender,
		Destinations: destinations,
		Content:      d.Content,
		Outcome:      string(d.Outcome),
		ErrorCode:    d.ErrorCode,
		Detail:       d.Detail,
		CreatedAt:    d.CreatedAt,
	}
}

// FromDispatches converts domain dispatches into DTOs.
func FromDispatches(ds []*dispatch.Dispatch) []DispatchDTO {
	out := make([]DispatchDTO, len(ds))
	for i, d := range ds {
		out[i] = FromDispatch(d)
	}
	return out
}

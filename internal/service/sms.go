package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oggyb/smsoffice-gateway/internal/cache"
	"github.com/oggyb/smsoffice-gateway/internal/domain/dispatch"
	"github.com/oggyb/smsoffice-gateway/smsoffice"
	"github.com/rs/zerolog"
)

// SendCommand is one request to deliver content to a list of numbers.
type SendCommand struct {
	Content      string
	Destinations []string
	// IdempotencyKey, when set, makes repeated commands with the same key
	// return the first recorded dispatch instead of sending again.
	IdempotencyKey string
}

type SMSService interface {
	Send(ctx context.Context, cmd SendCommand) (*dispatch.Dispatch, error)
	Get(ctx context.Context, id uuid.UUID) (*dispatch.Dispatch, error)
	History(ctx context.Context, page, limit int) ([]*dispatch.Dispatch, int64, error)
	Stats(ctx context.Context) (map[dispatch.Outcome]int64, error)
	Prune(ctx context.Context) error
}

// Defaults applied when the caller passes a non-positive value.
const (
	DefaultRetention      = 30 * 24 * time.Hour
	DefaultIdempotencyTTL = 24 * time.Hour
)

type smsService struct {
	sender      smsoffice.Client
	senderTitle string
	repo        dispatch.Repository
	cache       cache.Cache
	logger      zerolog.Logger

	retention      time.Duration
	idempotencyTTL time.Duration
	now            func() time.Time
}

// NewSMSService creates the service. senderTitle is only recorded on the
// dispatch; the Sender already carries it on the wire. cache may be nil, in
// which case counters and idempotency are disabled.
func NewSMSService(
	sender smsoffice.Client,
	senderTitle string,
	repo dispatch.Repository,
	c cache.Cache,
	logger zerolog.Logger,
	retention time.Duration,
	idempotencyTTL time.Duration,
) SMSService {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if idempotencyTTL <= 0 {
		idempotencyTTL = DefaultIdempotencyTTL
	}

	return &smsService{
		sender:         sender,
		senderTitle:    senderTitle,
		repo:           repo,
		cache:          c,
		logger:         logger,
		retention:      retention,
		idempotencyTTL: idempotencyTTL,
		now:            time.Now,
	}
}

// ErrIdempotencyInFlight is returned by Send when another call holding the
// same idempotency key has not finished yet.
var ErrIdempotencyInFlight = errors.New("a send with this idempotency key is already in progress")

// pendingClaim marks an idempotency key whose send has not been recorded.
const pendingClaim = "pending"

// recordTimeout bounds the writes that follow a provider call.
const recordTimeout = 5 * time.Second

// Send delivers the command through the Sender and records the outcome.
//
// Flow:
//   - Claim the idempotency key, or replay the dispatch already recorded
//     for it.
//   - Call the Sender once. No retries.
//   - Persist the dispatch, bump the outcome counter and point the claim at
//     the dispatch. These are best-effort: failures are logged only.
//
// The returned error is the Sender's error, unchanged, unless the key could
// not be claimed.
func (s *smsService) Send(ctx context.Context, cmd SendCommand) (*dispatch.Dispatch, error) {
	key := strings.TrimSpace(cmd.IdempotencyKey)
	claimed := false
	if key != "" && s.cache != nil {
		prev, ok, err := s.claim(ctx, key)
		if err != nil {
			return nil, err
		}
		if prev != nil {
			s.logger.Info().
				Str("dispatch_id", prev.ID.String()).
				Str("idempotency_key", key).
				Msg("replaying recorded dispatch")
			return prev, prev.Err()
		}
		claimed = ok
	}

	d := dispatch.New(s.senderTitle, cmd.Content, cmd.Destinations)

	sendErr := s.sender.Send(ctx, cmd.Content, cmd.Destinations...)
	d.Record(sendErr)

	evt := s.logger.Info()
	if sendErr != nil {
		evt = s.logger.Warn().Err(sendErr).Int("error_code", d.ErrorCode)
	}
	evt.Str("dispatch_id", d.ID.String()).
		Str("outcome", string(d.Outcome)).
		Int("destinations", len(d.Destinations)).
		Msg("dispatch recorded")

	// The provider has answered; the caller going away must not lose the record.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	saved := true
	if err := s.repo.Save(rctx, d); err != nil {
		saved = false
		s.logger.Error().Err(err).Str("dispatch_id", d.ID.String()).Msg("failed to persist dispatch")
	}

	if s.cache != nil {
		if _, err := s.cache.Incr(rctx, cache.Outcomes.Key(string(d.Outcome))); err != nil {
			s.logger.Warn().Err(err).Str("outcome", string(d.Outcome)).Msg("failed to bump outcome counter")
		}
	}

	switch {
	case claimed && saved:
		if err := s.cache.Set(rctx, cache.Idempotency.Key(key), d.ID.String(), s.idempotencyTTL); err != nil {
			s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("failed to store idempotency record")
		}
	case claimed:
		// Only persisted dispatches can be replayed. The claim stays pending
		// until it expires so the message is not sent twice.
		s.logger.Warn().Str("idempotency_key", key).Msg("idempotency key held until expiry")
	}

	return d, sendErr
}

// claim reserves key for this call. When the key is already taken it
// returns the dispatch recorded for it, or ErrIdempotencyInFlight while
// that send is still running. A cache that cannot take the claim is logged
// and the send goes ahead unclaimed.
func (s *smsService) claim(ctx context.Context, key string) (*dispatch.Dispatch, bool, error) {
	ck := cache.Idempotency.Key(key)

	ok, err := s.cache.SetNX(ctx, ck, pendingClaim, s.idempotencyTTL)
	if err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency claim failed")
		return nil, false, nil
	}
	if ok {
		return nil, true, nil
	}

	raw, err := s.cache.Get(ctx, ck)
	switch {
	case errors.Is(err, cache.ErrCacheMiss):
		// Expired between the two calls; the other holder may still be sending.
		return nil, false, ErrIdempotencyInFlight
	case err != nil:
		return nil, false, fmt.Errorf("idempotency lookup: %w", err)
	case raw == pendingClaim:
		return nil, false, ErrIdempotencyInFlight
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false, fmt.Errorf("corrupt idempotency record for %q: %w", key, err)
	}

	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("load dispatch for idempotency key: %w", err)
	}
	return d, false, nil
}

func (s *smsService) Get(ctx context.Context, id uuid.UUID) (*dispatch.Dispatch, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *smsService) History(ctx context.Context, page, limit int) ([]*dispatch.Dispatch, int64, error) {
	return s.repo.List(ctx, page, limit)
}

// Stats returns the number of sends per outcome. Outcomes never seen read as 0.
func (s *smsService) Stats(ctx context.Context) (map[dispatch.Outcome]int64, error) {
	out := make(map[dispatch.Outcome]int64, len(dispatch.Outcomes))
	for _, o := range dispatch.Outcomes {
		out[o] = 0
	}
	if s.cache == nil {
		return out, nil
	}

	for _, o := range dispatch.Outcomes {
		raw, err := s.cache.Get(ctx, cache.Outcomes.Key(string(o)))
		if errors.Is(err, cache.ErrCacheMiss) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s counter: %w", o, err)
		}

		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s counter: %w", o, err)
		}
		out[o] = n
	}
	return out, nil
}

// Prune removes dispatches older than the configured retention.
func (s *smsService) Prune(ctx context.Context) error {
	cutoff := s.now().Add(-s.retention)

	n, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune dispatches: %w", err)
	}

	s.logger.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("pruned dispatch journal")
	return nil
}

package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oggyb/smsoffice-gateway/internal/cache"
	"github.com/oggyb/smsoffice-gateway/internal/domain/dispatch"
	"github.com/oggyb/smsoffice-gateway/smsoffice"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentCall struct {
	text    string
	numbers []string
}

// fakeSender records calls and returns a fixed error.
type fakeSender struct {
	err   error
	mu    sync.Mutex
	calls []sentCall
}

func (f *fakeSender) Send(_ context.Context, text string, phoneNumbers ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sentCall{text: text, numbers: phoneNumbers})
	return f.err
}

// fakeRepo is an in-memory dispatch.Repository.
type fakeRepo struct {
	mu      sync.Mutex
	items   map[uuid.UUID]*dispatch.Dispatch
	saveErr error
	cutoff  time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: map[uuid.UUID]*dispatch.Dispatch{}}
}

func (r *fakeRepo) Save(ctx context.Context, d *dispatch.Dispatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.items[d.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*dispatch.Dispatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.items[id]
	if !ok {
		return nil, dispatch.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeRepo) List(_ context.Context, page, limit int) ([]*dispatch.Dispatch, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*dispatch.Dispatch, 0, len(r.items))
	for _, d := range r.items {
		all = append(all, d)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	start := (page - 1) * limit
	if start >= len(all) {
		return nil, int64(len(all)), nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (r *fakeRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cutoff = cutoff
	var n int64
	for id, d := range r.items {
		if d.CreatedAt.Before(cutoff) {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}

// fakeCache is an in-memory cache.Cache. err fails SetNX and Get.
type fakeCache struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func (c *fakeCache) Ping(context.Context) error { return nil }

func (c *fakeCache) Set(ctx context.Context, key, value string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *fakeCache) SetNX(ctx context.Context, key, value string, _ time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, c.err
	}
	if _, ok := c.values[key]; ok {
		return false, nil
	}
	c.values[key] = value
	return true, nil
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	v, ok := c.values[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return v, nil
}

func (c *fakeCache) Incr(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := strconv.ParseInt(c.values[key], 10, 64)
	n++
	c.values[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func newService(sender smsoffice.Client, repo dispatch.Repository, c cache.Cache) *smsService {
	return NewSMSService(sender, "T", repo, c, zerolog.Nop(), time.Hour, time.Minute).(*smsService)
}

func TestSend_SuccessIsRecorded(t *testing.T) {
	sender := &fakeSender{}
	repo := newFakeRepo()
	c := newFakeCache()
	svc := newService(sender, repo, c)

	d, err := svc.Send(context.Background(), SendCommand{
		Content:      "hello",
		Destinations: []string{"+995555000001", "+995555000002"},
	})
	require.NoError(t, err)

	assert.Equal(t, dispatch.OutcomeSuccess, d.Outcome)
	assert.Equal(t, "T", d.Sender)
	require.Len(t, sender.calls, 1)
	assert.Equal(t, "hello", sender.calls[0].text)
	assert.Equal(t, []string{"+995555000001", "+995555000002"}, sender.calls[0].numbers)

	stored, err := repo.GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.OutcomeSuccess, stored.Outcome)
	assert.Equal(t, "1", c.values[cache.Outcomes.Key("SUCCESS")])
}

func TestSend_ReturnsSenderErrorUnchanged(t *testing.T) {
	sendErr := &smsoffice.Error{Category: smsoffice.CategorySubscription, Code: 80, Message: "API key isn't valid"}
	svc := newService(&fakeSender{err: sendErr}, newFakeRepo(), newFakeCache())

	d, err := svc.Send(context.Background(), SendCommand{Content: "hello", Destinations: []string{"+995500000000"}})
	assert.Same(t, sendErr, err)
	assert.Equal(t, dispatch.OutcomeSubscription, d.Outcome)
	assert.Equal(t, 80, d.ErrorCode)
	assert.Equal(t, "API key isn't valid", d.Detail)
}

func TestSend_EmptyDestinationsReachSender(t *testing.T) {
	sender := &fakeSender{}
	svc := newService(sender, newFakeRepo(), nil)

	_, err := svc.Send(context.Background(), SendCommand{Content: "hello"})
	require.NoError(t, err)
	require.Len(t, sender.calls, 1)
	assert.Empty(t, sender.calls[0].numbers)
}

func TestSend_IdempotencyKeyReplays(t *testing.T) {
	sendErr := &smsoffice.Error{Category: smsoffice.CategoryBadRequest, Code: 10, Message: "Foreign number"}
	sender := &fakeSender{err: sendErr}
	c := newFakeCache()
	svc := newService(sender, newFakeRepo(), c)
	cmd := SendCommand{Content: "hello", Destinations: []string{"+15550000000"}, IdempotencyKey: "order-42"}

	first, err := svc.Send(context.Background(), cmd)
	require.ErrorIs(t, err, smsoffice.ErrBadRequest)

	second, err := svc.Send(context.Background(), cmd)
	require.ErrorIs(t, err, smsoffice.ErrBadRequest)
	assert.Equal(t, "Invalid request: Foreign number", err.Error())

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, sender.calls, 1)
	assert.Equal(t, "1", c.values[cache.Outcomes.Key("BAD_REQUEST")])
}

func TestSend_IdempotencyCacheFailureStillSends(t *testing.T) {
	sender := &fakeSender{}
	c := newFakeCache()
	c.err = errors.New("redis down")
	svc := newService(sender, newFakeRepo(), c)

	_, err := svc.Send(context.Background(), SendCommand{Content: "hello", IdempotencyKey: "k"})
	require.NoError(t, err)
	assert.Len(t, sender.calls, 1)
}

func TestSend_PersistFailureIsBestEffort(t *testing.T) {
	repo := newFakeRepo()
	repo.saveErr = errors.New("db gone")
	c := newFakeCache()
	svc := newService(&fakeSender{}, repo, c)

	d, err := svc.Send(context.Background(), SendCommand{Content: "hello", IdempotencyKey: "k"})
	require.NoError(t, err)
	require.NotNil(t, d)

	assert.Equal(t, pendingClaim, c.values[cache.Idempotency.Key("k")])

	again, err := svc.Send(context.Background(), SendCommand{Content: "hello", IdempotencyKey: "k"})
	assert.ErrorIs(t, err, ErrIdempotencyInFlight)
	assert.Nil(t, again)
}

// gatedSender blocks inside Send until release is closed.
type gatedSender struct {
	fakeSender
	entered chan struct{}
	release chan struct{}
}

func (g *gatedSender) Send(ctx context.Context, text string, phoneNumbers ...string) error {
	g.entered <- struct{}{}
	<-g.release
	return g.fakeSender.Send(ctx, text, phoneNumbers...)
}

func TestSend_ConcurrentSameKeySendsOnce(t *testing.T) {
	sender := &gatedSender{entered: make(chan struct{}, 2), release: make(chan struct{})}
	c := newFakeCache()
	svc := newService(sender, newFakeRepo(), c)
	cmd := SendCommand{Content: "hello", Destinations: []string{"+995555000001"}, IdempotencyKey: "order-42"}

	type result struct {
		d   *dispatch.Dispatch
		err error
	}
	results := make(chan result, 2)
	for i := 0; i < 2; i++ {
		go func() {
			d, err := svc.Send(context.Background(), cmd)
			results <- result{d, err}
		}()
	}

	<-sender.entered
	// The loser returns without reaching the sender while the winner is held.
	loser := <-results
	assert.ErrorIs(t, loser.err, ErrIdempotencyInFlight)
	assert.Nil(t, loser.d)

	close(sender.release)
	winner := <-results
	require.NoError(t, winner.err)

	sender.mu.Lock()
	assert.Len(t, sender.calls, 1)
	sender.mu.Unlock()

	replayed, err := svc.Send(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, winner.d.ID, replayed.ID)
}

// cancellingSender succeeds and then cancels the caller's context, as when
// the client disconnects while the provider call is in flight.
type cancellingSender struct {
	fakeSender
	cancel context.CancelFunc
}

func (c *cancellingSender) Send(ctx context.Context, text string, phoneNumbers ...string) error {
	err := c.fakeSender.Send(ctx, text, phoneNumbers...)
	c.cancel()
	return err
}

func TestSend_RecordsAfterCallerCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender := &cancellingSender{cancel: cancel}
	repo := newFakeRepo()
	c := newFakeCache()
	svc := newService(sender, repo, c)
	cmd := SendCommand{Content: "hello", Destinations: []string{"+995555000001"}, IdempotencyKey: "order-42"}

	d, err := svc.Send(ctx, cmd)
	require.NoError(t, err)
	require.Error(t, ctx.Err())

	stored, err := repo.GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.OutcomeSuccess, stored.Outcome)
	assert.Equal(t, "1", c.values[cache.Outcomes.Key("SUCCESS")])
	assert.Equal(t, d.ID.String(), c.values[cache.Idempotency.Key("order-42")])

	again, err := svc.Send(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, d.ID, again.ID)
	assert.Len(t, sender.calls, 1)
}

func TestSend_UnloadableRecordDoesNotResend(t *testing.T) {
	sender := &fakeSender{}
	c := newFakeCache()
	c.values[cache.Idempotency.Key("k")] = uuid.NewString()
	svc := newService(sender, newFakeRepo(), c)

	_, err := svc.Send(context.Background(), SendCommand{Content: "hello", IdempotencyKey: "k"})
	assert.ErrorIs(t, err, dispatch.ErrNotFound)
	assert.Empty(t, sender.calls)
}

func TestStats(t *testing.T) {
	c := newFakeCache()
	c.values[cache.Outcomes.Key("SUCCESS")] = "7"
	c.values[cache.Outcomes.Key("INTERNAL_SERVER")] = "2"
	svc := newService(&fakeSender{}, newFakeRepo(), c)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[dispatch.Outcome]int64{
		dispatch.OutcomeSuccess:        7,
		dispatch.OutcomeBadRequest:     0,
		dispatch.OutcomeSubscription:   0,
		dispatch.OutcomeInternalServer: 2,
	}, stats)

	c.values[cache.Outcomes.Key("SUBSCRIPTION")] = "many"
	_, err = svc.Stats(context.Background())
	assert.Error(t, err)
}

func TestStats_NoCache(t *testing.T) {
	svc := newService(&fakeSender{}, newFakeRepo(), nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Len(t, stats, 4)
	assert.Zero(t, stats[dispatch.OutcomeSuccess])
}

func TestHistoryAndGet(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(&fakeSender{}, repo, nil)

	for i := 0; i < 3; i++ {
		_, err := svc.Send(context.Background(), SendCommand{Content: strconv.Itoa(i)})
		require.NoError(t, err)
	}

	items, total, err := svc.History(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, items, 2)

	got, err := svc.Get(context.Background(), items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, items[0].ID, got.ID)

	_, err = svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, dispatch.ErrNotFound)
}

func TestPrune_UsesRetention(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(&fakeSender{}, repo, nil)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	old := dispatch.New("T", "old", nil)
	old.CreatedAt = now.Add(-2 * time.Hour)
	fresh := dispatch.New("T", "fresh", nil)
	fresh.CreatedAt = now.Add(-time.Minute)
	require.NoError(t, repo.Save(context.Background(), old))
	require.NoError(t, repo.Save(context.Background(), fresh))

	require.NoError(t, svc.Prune(context.Background()))

	assert.Equal(t, now.Add(-time.Hour), repo.cutoff)
	_, err := repo.GetByID(context.Background(), old.ID)
	assert.ErrorIs(t, err, dispatch.ErrNotFound)
	_, err = repo.GetByID(context.Background(), fresh.ID)
	assert.NoError(t, err)
}

func TestNewSMSService_Defaults(t *testing.T) {
	svc := NewSMSService(&fakeSender{}, "T", newFakeRepo(), nil, zerolog.Nop(), 0, -1).(*smsService)
	assert.Equal(t, DefaultRetention, svc.retention)
	assert.Equal(t, DefaultIdempotencyTTL, svc.idempotencyTTL)
}

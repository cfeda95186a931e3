package checkout

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"shopbridge/internal/domain"
	"shopbridge/internal/payment"
	"shopbridge/internal/repository/memory"
	"shopbridge/internal/service/access"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu       sync.Mutex
	openErrs []error
	getErrs  []error
	opens    int
	gets     int
	lastOpen payment.OpenSessionRequest
	sessions map[string]*payment.Session
	block    bool
	nextID   int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{sessions: map[string]*payment.Session{}}
}

func (f *fakeProvider) OpenSession(ctx context.Context, req payment.OpenSessionRequest) (*payment.Session, error) {
	f.mu.Lock()
	f.opens++
	f.lastOpen = req
	var err error
	if len(f.openErrs) > 0 {
		err, f.openErrs = f.openErrs[0], f.openErrs[1:]
	}
	block := f.block
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := "cs_test_" + strconv.Itoa(f.nextID)
	var total int64
	for _, item := range req.Items {
		total += item.PriceInCents * item.Quantity
	}
	s := &payment.Session{
		ID:          id,
		URL:         "https://checkout.example/" + id,
		Status:      domain.SessionStatusOpen,
		Principal:   req.ClientReference,
		AmountTotal: total,
		Currency:    req.Currency,
	}
	f.sessions[id] = s
	out := *s
	return &out, nil
}

func (f *fakeProvider) GetSession(ctx context.Context, _ string, id string) (*payment.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if len(f.getErrs) > 0 {
		var err error
		err, f.getErrs = f.getErrs[0], f.getErrs[1:]
		return nil, err
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, &payment.Error{StatusCode: http.StatusNotFound, Code: "resource_missing"}
	}
	out := *s
	return &out, nil
}

func (f *fakeProvider) settle(id string, status domain.SessionStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[id].Status = status
	if status == domain.SessionStatusFailed {
		f.sessions[id].Error = "session expired"
	}
}

type fixture struct {
	svc      *Service
	provider *fakeProvider
	store    *memory.Store
}

func newFixture(t *testing.T, configured bool) fixture {
	t.Helper()
	store := memory.NewStore()
	gate := access.New(store.Roles(), []string{"admin"}, nil)
	provider := newFakeProvider()
	svc := New(Deps{
		Settings: store.Settings(),
		Sessions: store.Sessions(),
		Provider: provider,
		Gate:     gate,
	}, Config{
		Timeout:        50 * time.Millisecond,
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	})
	if configured {
		_, err := svc.Configure(context.Background(), "admin", domain.PaymentConfig{SecretKey: "sk_test", AllowedCountries: []string{"in"}})
		require.NoError(t, err)
	}
	return fixture{svc: svc, provider: provider, store: store}
}

var validInput = CreateSessionInput{
	Items:      []domain.ShoppingItem{{ProductName: "Kettle", Quantity: 2, PriceInCents: 1200}},
	SuccessURL: "https://shop.example/success",
	CancelURL:  "https://shop.example/cart",
}

func TestCreateSessionNotConfigured(t *testing.T) {
	f := newFixture(t, false)
	ok, err := f.svc.IsConfigured(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.svc.CreateSession(context.Background(), "user-1", validInput)
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
	assert.Zero(t, f.provider.opens)
}

func TestCreateSessionValidation(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.CreateSession(ctx, "", validInput)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	bad := []CreateSessionInput{
		{SuccessURL: "s", CancelURL: "c"},
		{Items: []domain.ShoppingItem{{ProductName: "x", Quantity: 0, PriceInCents: 1}}, SuccessURL: "s", CancelURL: "c"},
		{Items: []domain.ShoppingItem{{ProductName: "x", Quantity: 1, PriceInCents: -1}}, SuccessURL: "s", CancelURL: "c"},
		{Items: validInput.Items, SuccessURL: " ", CancelURL: "c"},
		{Items: []domain.ShoppingItem{{ProductName: "x", Quantity: 4, PriceInCents: 1 << 62}}, SuccessURL: "s", CancelURL: "c"},
		{Items: []domain.ShoppingItem{
			{ProductName: "x", Quantity: 1, PriceInCents: math.MaxInt64},
			{ProductName: "y", Quantity: 1, PriceInCents: 1},
		}, SuccessURL: "s", CancelURL: "c"},
	}
	for _, in := range bad {
		_, err := f.svc.CreateSession(ctx, "user-1", in)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	}
	assert.Zero(t, f.provider.opens)
}

func TestCreateSessionPersistsRecord(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	cs, err := f.svc.CreateSession(ctx, "user-1", validInput)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusOpen, cs.Status)
	assert.Equal(t, int64(2400), cs.AmountTotal)
	assert.NotEmpty(t, cs.RedirectURL)

	assert.Equal(t, "inr", f.provider.lastOpen.Currency)
	assert.Equal(t, []string{"IN"}, f.provider.lastOpen.AllowedCountries)
	assert.Equal(t, "user-1", f.provider.lastOpen.ClientReference)

	stored, err := f.store.Sessions().Get(ctx, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", stored.Principal)
}

func TestCreateSessionRetriesTransientErrors(t *testing.T) {
	f := newFixture(t, true)
	f.provider.openErrs = []error{
		&payment.Error{StatusCode: http.StatusServiceUnavailable},
		&payment.Error{StatusCode: http.StatusTooManyRequests},
	}
	_, err := f.svc.CreateSession(context.Background(), "user-1", validInput)
	require.NoError(t, err)
	assert.Equal(t, 3, f.provider.opens)
}

func TestCreateSessionGivesUpAfterRetries(t *testing.T) {
	f := newFixture(t, true)
	for i := 0; i < 5; i++ {
		f.provider.openErrs = append(f.provider.openErrs, &payment.Error{StatusCode: http.StatusBadGateway})
	}
	_, err := f.svc.CreateSession(context.Background(), "user-1", validInput)
	assert.ErrorIs(t, err, domain.ErrProviderError)
	assert.Equal(t, 3, f.provider.opens)
}

func TestCreateSessionPermanentErrorNotRetried(t *testing.T) {
	f := newFixture(t, true)
	f.provider.openErrs = []error{&payment.Error{StatusCode: http.StatusBadRequest, Code: "parameter_invalid"}}
	_, err := f.svc.CreateSession(context.Background(), "user-1", validInput)
	assert.ErrorIs(t, err, domain.ErrProviderError)
	assert.Equal(t, 1, f.provider.opens)
}

func TestCreateSessionTimeout(t *testing.T) {
	f := newFixture(t, true)
	f.provider.block = true

	start := time.Now()
	_, err := f.svc.CreateSession(context.Background(), "user-1", validInput)
	assert.ErrorIs(t, err, domain.ErrProviderTimeout)
	assert.False(t, errors.Is(err, domain.ErrProviderError))
	assert.Equal(t, 1, f.provider.opens)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCreateSessionCallerDeadlineIsTimeout(t *testing.T) {
	f := newFixture(t, true)
	f.svc.cfg.Timeout = time.Second
	f.provider.block = true

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.svc.CreateSession(ctx, "user-1", validInput)
	assert.ErrorIs(t, err, domain.ErrProviderTimeout)
	assert.False(t, errors.Is(err, domain.ErrProviderError))
	assert.Equal(t, 1, f.provider.opens)
}

func TestCreateSessionCallerDeadlineDuringBackoff(t *testing.T) {
	f := newFixture(t, true)
	f.svc.cfg.InitialBackoff = time.Second
	f.svc.cfg.MaxBackoff = time.Second
	f.provider.openErrs = []error{&payment.Error{StatusCode: http.StatusServiceUnavailable}}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := f.svc.CreateSession(ctx, "user-1", validInput)
	assert.ErrorIs(t, err, domain.ErrProviderTimeout)
}

func TestSessionStatusLifecycle(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	cs, err := f.svc.CreateSession(ctx, "user-1", validInput)
	require.NoError(t, err)

	res, err := f.svc.SessionStatus(ctx, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusOpen, res.Status)

	f.provider.settle(cs.ID, domain.SessionStatusCompleted)
	res, err = f.svc.SessionStatus(ctx, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusCompleted, res.Status)
	assert.Equal(t, "user-1", res.Principal)
	assert.Equal(t, int64(2400), res.AmountTotal)

	// Terminal results are served without asking the provider again and
	// the provider flipping later does not reopen the session.
	gets := f.provider.gets
	f.provider.settle(cs.ID, domain.SessionStatusFailed)
	res, err = f.svc.SessionStatus(ctx, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusCompleted, res.Status)
	assert.Equal(t, gets, f.provider.gets)

	stored, err := f.store.Sessions().Get(ctx, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusCompleted, stored.Status)
}

func TestSessionStatusUnknownAndOwnership(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.SessionStatus(ctx, "cs_unknown")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.SessionStatus(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	cs, err := f.svc.CreateSession(ctx, "user-1", validInput)
	require.NoError(t, err)
	_, err = f.svc.SessionStatusFor(ctx, "user-2", cs.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.SessionStatusFor(ctx, "admin", cs.ID)
	assert.NoError(t, err)
}

func TestConfigureAndMask(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.Configure(ctx, "user-1", domain.PaymentConfig{SecretKey: "sk", AllowedCountries: []string{"IN"}})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.svc.Configure(ctx, "admin", domain.PaymentConfig{SecretKey: "sk"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.svc.Configure(ctx, "admin", domain.PaymentConfig{SecretKey: "sk_live_abcd1234", AllowedCountries: []string{"in", "us"}})
	require.NoError(t, err)

	cfg, err := f.svc.PaymentConfig(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "************1234", cfg.SecretKey)
	assert.Equal(t, []string{"IN", "US"}, cfg.AllowedCountries)
}

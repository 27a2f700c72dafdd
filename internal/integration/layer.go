// Package integration is the only caller of the backend client. It mediates
// every read and write of the session cache, keeps the wellness log in device
// storage, and owns the observable loading/error state the UI renders.
//
// Operations recover their errors at the boundary: a failure is logged and
// normalized into State.Error, and also returned so non-UI callers can act on
// it. Nothing panics across the boundary.
package integration

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/julianstephens/drivewise/internal/cache"
	"github.com/julianstephens/drivewise/internal/constants"
	apperrors "github.com/julianstephens/drivewise/internal/errors"
	"github.com/julianstephens/drivewise/internal/logger"
	"github.com/julianstephens/drivewise/internal/models"
	"github.com/julianstephens/drivewise/internal/storage"
)

// Backend is the remote API surface the layer calls. *api.Client implements it.
type Backend interface {
	VerifyEmail(ctx context.Context, email string) error
	Register(ctx context.Context, req models.RegisterRequest) (models.AuthData, error)
	Login(ctx context.Context, email, password string) (models.AuthData, error)
	RefreshToken(ctx context.Context) (models.AuthData, error)
	TripStats(ctx context.Context, period models.Period) ([]models.TripStats, error)
	FinancialTips(ctx context.Context, req models.AdviceRequest) (models.FinancialAdvice, error)
	WellnessAdvice(ctx context.Context, req models.WellnessRequest) (models.WellnessAdvice, error)
	InvestmentAdvice(ctx context.Context, req models.AdviceRequest) (models.InvestmentAdvice, error)
	CreateChat(ctx context.Context, message string) (models.ChatResponse, error)
	ListChats(ctx context.Context) ([]models.Chat, error)
	ReplyChat(ctx context.Context, chatID, message string) (models.ChatResponse, error)
}

// TokenStore persists the API token. Get returns "" when no token is stored.
type TokenStore interface {
	Get() (string, error)
	Set(token string) error
	Clear() error
}

// State is the observable state published to subscribers.
type State struct {
	IsAuthenticated    bool                                 `json:"is_authenticated"`
	IsLoading          bool                                 `json:"is_loading"`
	Error              string                               `json:"error,omitempty"`
	TripStats          map[models.Period][]models.TripStats `json:"trip_stats"`
	WellnessPeriod     models.Period                        `json:"wellness_period"`
	WellnessData       []models.WellnessLog                 `json:"wellness_data"`
	FinancialAdvice    *models.FinancialAdvice              `json:"financial_advice,omitempty"`
	WellnessAdvice     *models.WellnessAdvice               `json:"wellness_advice,omitempty"`
	InvestmentAdvice   models.InvestmentAdvice              `json:"investment_advice,omitempty"`
	HasEmptyData       bool                                 `json:"has_empty_data"`
	DataCheckCompleted bool                                 `json:"data_check_completed"`
	Chats              []models.Chat                        `json:"chats"`
	CurrentChatID      string                               `json:"current_chat_id,omitempty"`
	Messages           []models.ChatMessage                 `json:"messages"`
}

func newState(authenticated bool) State {
	return State{
		IsAuthenticated: authenticated,
		TripStats:       make(map[models.Period][]models.TripStats),
		WellnessPeriod:  models.PeriodDaily,
		WellnessData:    []models.WellnessLog{},
		Chats:           []models.Chat{},
		Messages:        []models.ChatMessage{},
	}
}

func (s State) clone() State {
	s.TripStats = maps.Clone(s.TripStats)
	s.WellnessData = slices.Clone(s.WellnessData)
	s.Chats = slices.Clone(s.Chats)
	s.Messages = slices.Clone(s.Messages)
	return s
}

// Observer receives a snapshot after every state change. Observers run
// synchronously, in order, and must not call the layer's mutating methods.
type Observer func(State)

// Layer is the data integration layer for one session.
type Layer struct {
	backend Backend
	tokens  TokenStore
	store   storage.Provider
	cache   *cache.Store

	now         func() time.Time
	loc         *time.Location
	ttl         time.Duration
	settleDelay time.Duration

	// notifyMu serializes state changes with their delivery so every
	// observer sees snapshots in the same order.
	notifyMu sync.Mutex

	mu           sync.Mutex
	state        State
	loading      int
	observers    map[int]Observer
	nextObserver int

	// one-shot availability check
	checkPending bool
	checkDone    bool
	checkTimer   *time.Timer
	checkGen     uint64

	// bumped on logout; results requested under an older session are dropped
	session uint64
}

// Option configures a Layer.
type Option func(*Layer)

// WithCache shares an existing cache store instead of creating one.
func WithCache(c *cache.Store) Option {
	return func(l *Layer) { l.cache = c }
}

// WithClock replaces time.Now for timestamps and calendar filtering.
func WithClock(now func() time.Time) Option {
	return func(l *Layer) { l.now = now }
}

// WithLocation sets the timezone wellness periods are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(l *Layer) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// WithTTL overrides the cache freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(l *Layer) { l.ttl = ttl }
}

// WithSettleDelay overrides the pause between persisting a login token and
// running the availability check.
func WithSettleDelay(d time.Duration) Option {
	return func(l *Layer) { l.settleDelay = d }
}

// New creates a Layer. store may be nil on hosts without device storage;
// wellness writes then fail with ErrStorageUnavailable.
func New(backend Backend, tokens TokenStore, store storage.Provider, opts ...Option) *Layer {
	l := &Layer{
		backend:     backend,
		tokens:      tokens,
		store:       store,
		now:         time.Now,
		loc:         time.Local,
		ttl:         constants.CacheTTL,
		settleDelay: constants.LoginSettleDelay,
		observers:   make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.cache == nil {
		l.cache = cache.New(cache.WithClock(l.now))
	}
	l.state = newState(l.IsAuthenticated())
	return l
}

// Cache returns the layer's cache store.
func (l *Layer) Cache() *cache.Store {
	return l.cache
}

// State returns a snapshot of the current state.
func (l *Layer) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.clone()
}

// Subscribe registers fn for every state change and returns a function that
// removes it.
func (l *Layer) Subscribe(fn Observer) func() {
	l.mu.Lock()
	id := l.nextObserver
	l.nextObserver++
	l.observers[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.observers, id)
		l.mu.Unlock()
	}
}

// IsAuthenticated reads the token store; a token is present or it is not.
func (l *Layer) IsAuthenticated() bool {
	if l.tokens == nil {
		return false
	}
	token, err := l.tokens.Get()
	if err != nil {
		logger.Debug("Failed to read token", "error", err)
		return false
	}
	return token != ""
}

// ClearError dismisses the current error without retrying anything.
func (l *Layer) ClearError() {
	l.update(func(s *State) { s.Error = "" })
}

func (l *Layer) update(fn func(*State)) {
	l.apply(func(s *State) bool {
		fn(s)
		return true
	})
}

// apply runs fn under the state lock and publishes the result unless fn
// reports that it changed nothing.
func (l *Layer) apply(fn func(*State) bool) bool {
	l.notifyMu.Lock()
	defer l.notifyMu.Unlock()

	l.mu.Lock()
	if !fn(&l.state) {
		l.mu.Unlock()
		return false
	}
	snapshot := l.state.clone()
	observers := make([]Observer, 0, len(l.observers))
	for _, id := range slices.Sorted(maps.Keys(l.observers)) {
		observers = append(observers, l.observers[id])
	}
	l.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
	return true
}

// guard ties a result to the session that asked for it. accept, when set,
// is asked once before the result is published; a caller that stopped
// waiting answers false.
type guard struct {
	session uint64
	accept  func() bool
}

func (l *Layer) guard(accept func() bool) guard {
	l.mu.Lock()
	defer l.mu.Unlock()
	return guard{session: l.session, accept: accept}
}

// commit applies fn if g's session is still current and its caller still
// accepts the result. It reports whether fn ran.
func (l *Layer) commit(g guard, fn func(*State)) bool {
	return l.apply(func(s *State) bool {
		if l.session != g.session {
			return false
		}
		if g.accept != nil && !g.accept() {
			return false
		}
		fn(s)
		return true
	})
}

// begin marks an operation in flight and clears the previous error. The
// returned func must be deferred.
func (l *Layer) begin() func() {
	var session uint64
	l.update(func(s *State) {
		session = l.session
		l.loading++
		s.IsLoading = true
		s.Error = ""
	})
	return func() {
		l.apply(func(s *State) bool {
			if l.session != session {
				return false
			}
			if l.loading > 0 {
				l.loading--
			}
			s.IsLoading = l.loading > 0
			return true
		})
	}
}

// fail logs err and publishes it as the user-facing error.
func (l *Layer) fail(op string, err error, keyvals ...any) error {
	return l.failIn(l.guard(nil), op, err, keyvals...)
}

// failIn is fail for a guarded request. Errors of abandoned requests are
// only logged.
func (l *Layer) failIn(g guard, op string, err error, keyvals ...any) error {
	if errors.Is(err, context.Canceled) {
		logger.Debug("Operation abandoned", append([]any{"op", op}, keyvals...)...)
		return err
	}
	msg := apperrors.Message(err)
	if !l.commit(g, func(s *State) { s.Error = msg }) {
		logger.Debug("Dropping error of ended request", append([]any{"op", op, "error", err}, keyvals...)...)
		return err
	}
	logger.Warn("Operation failed", append([]any{"op", op, "error", err}, keyvals...)...)
	return err
}

// requireAuth short-circuits gated operations before any network call.
func (l *Layer) requireAuth(op string) error {
	if l.IsAuthenticated() {
		return nil
	}
	logger.Debug("Operation requires authentication", "op", op)
	l.update(func(s *State) { s.Error = apperrors.AuthRequiredMessage })
	return apperrors.ErrAuthRequired
}

// Package datasync republishes the integration layer's state to every
// subscribed page, keeps the authenticated session's data fresh on a timer,
// and tracks which pages have ever received data.
package datasync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/drivewise/internal/constants"
	apperrors "github.com/julianstephens/drivewise/internal/errors"
	"github.com/julianstephens/drivewise/internal/integration"
	"github.com/julianstephens/drivewise/internal/logger"
	"github.com/julianstephens/drivewise/internal/models"
)

// CacheStatus records which pages have ever had data this session. Flags only
// go back to false on logout.
type CacheStatus struct {
	Dashboard bool `json:"dashboard"`
	Analytics bool `json:"analytics"`
	Wellness  bool `json:"wellness"`
	Financial bool `json:"financial"`
	Earnings  bool `json:"earnings"`
}

// For returns the flag for page.
func (c CacheStatus) For(page constants.PageType) bool {
	switch page {
	case constants.PageDashboard:
		return c.Dashboard
	case constants.PageAnalytics:
		return c.Analytics
	case constants.PageWellness:
		return c.Wellness
	case constants.PageFinancial:
		return c.Financial
	case constants.PageEarnings:
		return c.Earnings
	default:
		return false
	}
}

// observe sets the flags whose backing data is present in s and returns the
// pages that flipped.
func (c *CacheStatus) observe(s integration.State) []constants.PageType {
	var flipped []constants.PageType
	set := func(flag *bool, page constants.PageType, present bool) {
		if present && !*flag {
			*flag = true
			flipped = append(flipped, page)
		}
	}
	set(&c.Dashboard, constants.PageDashboard, len(s.TripStats[models.PeriodDaily]) > 0)
	set(&c.Earnings, constants.PageEarnings, len(s.TripStats[models.PeriodMonthly]) > 0)
	set(&c.Analytics, constants.PageAnalytics, len(s.TripStats[models.PeriodYearly]) > 0)
	set(&c.Wellness, constants.PageWellness, len(s.WellnessData) > 0)
	set(&c.Financial, constants.PageFinancial, s.FinancialAdvice != nil || len(s.TripStats[models.PeriodMonthly]) > 0)
	return flipped
}

// Snapshot is what subscribers receive.
type Snapshot struct {
	integration.State
	CacheStatus  CacheStatus `json:"cache_status"`
	LastSyncTime *time.Time  `json:"last_sync_time,omitempty"`
	IsSyncing    bool        `json:"is_syncing"`
}

// SyncResult describes one completed SyncAllData run.
type SyncResult struct {
	Time time.Time
	Err  error
}

// Context is the cross-page view of one session.
type Context struct {
	layer *integration.Layer

	now            func() time.Time
	resyncInterval time.Duration
	authInterval   time.Duration
	onSync         func(SyncResult)
	onStatus       func(constants.PageType)

	mu          sync.Mutex
	state       integration.State
	status      CacheStatus
	lastSync    time.Time
	syncing     bool
	subscribers map[chan Snapshot]struct{}

	unsubscribe func()
}

type Option func(*Context)

// WithResyncInterval overrides the periodic resync interval.
func WithResyncInterval(d time.Duration) Option {
	return func(c *Context) { c.resyncInterval = d }
}

// WithAuthCheckInterval overrides how often Run re-reads the token store.
func WithAuthCheckInterval(d time.Duration) Option {
	return func(c *Context) { c.authInterval = d }
}

func WithClock(now func() time.Time) Option {
	return func(c *Context) { c.now = now }
}

// WithSyncHook is called after every SyncAllData run.
func WithSyncHook(fn func(SyncResult)) Option {
	return func(c *Context) { c.onSync = fn }
}

// WithStatusHook is called when a page's cache status first becomes true.
// It runs on the goroutine that changed the state and must not block.
func WithStatusHook(fn func(constants.PageType)) Option {
	return func(c *Context) { c.onStatus = fn }
}

// New creates a Context mirroring layer. Call Close to detach it.
func New(layer *integration.Layer, opts ...Option) *Context {
	c := &Context{
		layer:          layer,
		now:            time.Now,
		resyncInterval: constants.ResyncInterval,
		authInterval:   constants.AuthCheckInterval,
		subscribers:    make(map[chan Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state = layer.State()
	c.status.observe(c.state)
	c.unsubscribe = layer.Subscribe(c.mirror)
	return c
}

// Layer returns the integration layer behind the context.
func (c *Context) Layer() *integration.Layer {
	return c.layer
}

// State returns the current snapshot.
func (c *Context) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe returns a channel of snapshots, starting with the current one.
// A slow reader only misses intermediate snapshots, never the latest. The
// returned func unsubscribes and closes the channel.
func (c *Context) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	c.mu.Lock()
	c.subscribers[ch] = struct{}{}
	ch <- c.snapshotLocked()
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subscribers[ch]; ok {
				delete(c.subscribers, ch)
				close(ch)
			}
		})
	}
}

// Close detaches from the layer and closes every subscriber channel.
func (c *Context) Close() {
	c.unsubscribe()
	c.mu.Lock()
	defer c.mu.Unlock()
	for ch := range c.subscribers {
		delete(c.subscribers, ch)
		close(ch)
	}
}

func (c *Context) mirror(s integration.State) {
	c.mu.Lock()
	if !s.IsAuthenticated {
		c.status = CacheStatus{}
		c.lastSync = time.Time{}
	}
	flipped := c.status.observe(s)
	c.state = s
	c.broadcastLocked()
	c.mu.Unlock()

	if c.onStatus != nil {
		for _, page := range flipped {
			c.onStatus(page)
		}
	}
}

func (c *Context) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:       c.state,
		CacheStatus: c.status,
		IsSyncing:   c.syncing,
	}
	if !c.lastSync.IsZero() {
		t := c.lastSync
		snap.LastSyncTime = &t
	}
	return snap
}

func (c *Context) broadcastLocked() {
	snap := c.snapshotLocked()
	for ch := range c.subscribers {
		select {
		case ch <- snap:
		default:
			// replace the unread snapshot with the newer one
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (c *Context) setSyncing(syncing bool, finished time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncing = syncing
	if !finished.IsZero() {
		c.lastSync = finished
	}
	c.broadcastLocked()
}

// SyncAllData force-loads the daily and monthly statistics and the daily
// wellness logs concurrently. The sync time is recorded even when some loads
// fail; the joined load errors are returned.
func (c *Context) SyncAllData(ctx context.Context) error {
	if !c.layer.IsAuthenticated() {
		return apperrors.ErrAuthRequired
	}
	c.setSyncing(true, time.Time{})

	err := runAll(ctx, []load{
		tripLoad(c.layer, models.PeriodDaily, true),
		tripLoad(c.layer, models.PeriodMonthly, true),
		wellnessLoad(c.layer, models.PeriodDaily),
	})

	finished := c.now()
	c.setSyncing(false, finished)
	if err != nil {
		logger.Warn("Data sync finished with errors", "error", err)
	} else {
		logger.Debug("Data sync finished")
	}
	if c.onSync != nil {
		c.onSync(SyncResult{Time: finished, Err: err})
	}
	return err
}

// RefreshData force-loads what page needs. It returns false without any call
// when unauthenticated or when page is unknown, and otherwise reports
// whether every load succeeded.
func (c *Context) RefreshData(ctx context.Context, page constants.PageType) bool {
	loads, ok := c.pageLoads(page, true)
	if !ok {
		logger.Warn("Unknown page refresh requested", "page", page)
		return false
	}
	if !c.layer.IsAuthenticated() {
		return false
	}
	if err := runAll(ctx, loads); err != nil {
		logger.Debug("Page refresh failed", "page", page, "error", err)
		return false
	}
	return true
}

// MountPage loads what page needs the way a page does when it is opened:
// fresh cache entries are served without a network call.
func (c *Context) MountPage(ctx context.Context, page constants.PageType) error {
	loads, ok := c.pageLoads(page, false)
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	if !c.layer.IsAuthenticated() {
		return apperrors.ErrAuthRequired
	}
	return runAll(ctx, loads)
}

func (c *Context) pageLoads(page constants.PageType, force bool) ([]load, bool) {
	trips := func(periods ...models.Period) []load {
		loads := make([]load, 0, len(periods))
		for _, p := range periods {
			loads = append(loads, tripLoad(c.layer, p, force))
		}
		return loads
	}
	switch page {
	case constants.PageDashboard:
		return append(trips(models.PeriodDaily), wellnessLoad(c.layer, models.PeriodDaily)), true
	case constants.PageAnalytics:
		return trips(models.PeriodDaily, models.PeriodMonthly, models.PeriodYearly), true
	case constants.PageWellness:
		return []load{wellnessLoad(c.layer, models.PeriodDaily)}, true
	case constants.PageFinancial:
		return trips(models.PeriodMonthly), true
	case constants.PageEarnings:
		return trips(models.PeriodDaily, models.PeriodMonthly), true
	default:
		return nil, false
	}
}

// Logout ends the session; the mirrored state and cache status reset with it.
func (c *Context) Logout() error {
	return c.layer.Logout()
}

// Run keeps the session in sync until ctx is done. While authenticated it
// runs the availability check and an initial sync once, then resyncs on every
// interval tick. The resync ticker exists only while authenticated.
func (c *Context) Run(ctx context.Context) error {
	authTicker := time.NewTicker(c.authInterval)
	defer authTicker.Stop()

	var (
		resync  *time.Ticker
		resyncC <-chan time.Time
	)
	stopResync := func() {
		if resync != nil {
			resync.Stop()
			resync, resyncC = nil, nil
		}
	}
	defer stopResync()

	check := func() {
		authed := c.layer.RefreshAuth()
		switch {
		case authed && resync == nil:
			logger.Debug("Session authenticated, starting resync", "interval", c.resyncInterval)
			c.layer.EnsureDataCheck()
			if !c.hasSynced() {
				c.SyncAllData(ctx)
			}
			resync = time.NewTicker(c.resyncInterval)
			resyncC = resync.C
		case !authed && resync != nil:
			logger.Debug("Session ended, stopping resync")
			stopResync()
		}
	}

	check()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-authTicker.C:
			check()
		case <-resyncC:
			c.SyncAllData(ctx)
		}
	}
}

func (c *Context) hasSynced() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.lastSync.IsZero()
}

type load func(context.Context) error

func tripLoad(layer *integration.Layer, period models.Period, force bool) load {
	return func(ctx context.Context) error {
		_, err := layer.LoadTripStats(ctx, period, force)
		return err
	}
}

func wellnessLoad(layer *integration.Layer, period models.Period) load {
	return func(context.Context) error {
		layer.LoadWellnessData(period)
		return nil
	}
}

// runAll runs loads concurrently and waits for all of them.
func runAll(ctx context.Context, loads []load) error {
	errs := make([]error, len(loads))
	var wg sync.WaitGroup
	for i, fn := range loads {
		wg.Add(1)
		go func(i int, fn load) {
			defer wg.Done()
			errs[i] = fn(ctx)
		}(i, fn)
	}
	wg.Wait()
	return errors.Join(errs...)
}

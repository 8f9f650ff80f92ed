package auth

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/govod-storefront/api/web"
	"github.com/irsalhamdi/govod-storefront/api/weberr"
	"github.com/sirupsen/logrus"
)

// browserLocks hands out one mutex per browser. An entry lives only while
// someone holds or waits for it.
type browserLocks struct {
	mu sync.Mutex
	m  map[string]*browserLock
}

type browserLock struct {
	mu   sync.Mutex
	refs int
}

func newBrowserLocks() *browserLocks {
	return &browserLocks{m: make(map[string]*browserLock)}
}

// acquire locks key. With wait false it gives up at once when the lock is
// taken and reports false.
func (l *browserLocks) acquire(key string, wait bool) (release func(), ok bool) {
	l.mu.Lock()
	e, found := l.m[key]
	if !found {
		e = &browserLock{}
		l.m[key] = e
	}

	if !wait {
		if !e.mu.TryLock() {
			l.mu.Unlock()
			return nil, false
		}
		e.refs++
		l.mu.Unlock()
		return func() { l.release(key, e) }, true
	}

	e.refs++
	l.mu.Unlock()
	e.mu.Lock()
	return func() { l.release(key, e) }, true
}

func (l *browserLocks) release(key string, e *browserLock) {
	e.mu.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.m, key)
	}
}

func (l *browserLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

// Serialize runs the state-changing requests of one browser one at a time,
// from loading its sessions to committing them. It must wrap Scopes. A
// request matched by submit is refused with 409 instead of waiting, so a
// login or payment sent twice is acted on once.
func (m *Manager) Serialize(submit func(*http.Request) bool) web.Middleware {
	mw := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return handler(ctx, w, r)
			}

			key := m.browserKey(r)
			if key == "" {
				return handler(ctx, w, r)
			}

			release, ok := m.locks.acquire(key, !submit(r))
			if !ok {
				m.log.WithFields(logrus.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
				}).Info("duplicate submission refused")
				return web.Respond(ctx, w, weberr.ErrorResponse{Error: ErrInFlight.Error()}, http.StatusConflict)
			}
			defer release()

			return handler(ctx, w, r)
		}
		return h
	}
	return mw
}

// browserKey identifies the browser by its session cookies. A browser
// without any has no server state another request could race on.
func (m *Manager) browserKey(r *http.Request) string {
	var parts []string
	for _, sm := range []*scs.SessionManager{m.durable, m.ephemeral} {
		if c, err := r.Cookie(sm.Cookie.Name); err == nil && c.Value != "" {
			parts = append(parts, sm.Cookie.Name+"="+c.Value)
		}
	}
	return strings.Join(parts, ";")
}

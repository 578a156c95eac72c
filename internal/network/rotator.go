package network

import (
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"
)

var ErrNoProxies = errors.New("no proxies available")

// maxStrikes caps how far a repeatedly failing proxy's bench grows.
const maxStrikes = 4

type proxyState struct {
	url          *url.URL
	benchedUntil time.Time
	strikes      int
}

// Rotator hands out proxies round-robin. A proxy the provider throttled,
// refused or could not be reached through is benched, and each
// consecutive strike doubles the bench up to maxStrikes.
type Rotator struct {
	mu          sync.Mutex
	proxies     []*proxyState
	byKey       map[string]*proxyState
	banDuration time.Duration
	index       int
	now         func() time.Time
}

func NewRotator(raw []string, banDuration time.Duration) (*Rotator, error) {
	r := &Rotator{
		byKey:       map[string]*proxyState{},
		banDuration: banDuration,
		now:         time.Now,
	}
	for _, proxy := range raw {
		u, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("parse proxy %q: %w", proxy, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("proxy must be an absolute url: %s", proxy)
		}
		if _, dup := r.byKey[u.String()]; dup {
			continue
		}
		state := &proxyState{url: u}
		r.proxies = append(r.proxies, state)
		r.byKey[u.String()] = state
	}
	return r, nil
}

func (r *Rotator) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.proxies)
}

// Available counts proxies that are not benched right now.
func (r *Rotator) Available() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	n := 0
	for _, p := range r.proxies {
		if !now.Before(p.benchedUntil) {
			n++
		}
	}
	return n
}

func (r *Rotator) Next() (*url.URL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.proxies) == 0 {
		return nil, ErrNoProxies
	}
	now := r.now()
	for tried := 0; tried < len(r.proxies); tried++ {
		p := r.proxies[r.index]
		r.index = (r.index + 1) % len(r.proxies)
		if !now.Before(p.benchedUntil) {
			return p.url, nil
		}
	}
	return nil, ErrNoProxies
}

// Report records the provider's status code as seen through proxy.
// 403, 429 and gateway errors bench it; any other status clears its strikes.
func (r *Rotator) Report(proxy *url.URL, status int) {
	if benchable(status) {
		r.Bench(proxy)
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.lookup(proxy); p != nil {
		p.strikes = 0
	}
}

// Bench takes proxy out of rotation after a failed request.
func (r *Rotator) Bench(proxy *url.URL) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.lookup(proxy)
	if p == nil {
		return
	}
	if p.strikes < maxStrikes {
		p.strikes++
	}
	p.benchedUntil = r.now().Add(r.banDuration << (p.strikes - 1))
}

func (r *Rotator) lookup(proxy *url.URL) *proxyState {
	if proxy == nil {
		return nil
	}
	return r.byKey[proxy.String()]
}

func benchable(status int) bool {
	switch status {
	case 403, 429, 502, 503, 504:
		return true
	}
	return false
}

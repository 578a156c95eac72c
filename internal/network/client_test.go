package network

import (
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
)

// fakeTransport answers every request with the status configured for its
// proxy.
type fakeTransport struct {
	tls_client.HttpClient
	proxy  string
	status int
	calls  atomic.Int32
}

func (f *fakeTransport) Do(*fhttp.Request) (*fhttp.Response, error) {
	f.calls.Add(1)
	return &fhttp.Response{StatusCode: f.status, Body: io.NopCloser(strings.NewReader("{}"))}, nil
}

func TestClientDoConcurrent(t *testing.T) {
	var mu sync.Mutex
	agents := map[string]int{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		agents[r.Header.Get("User-Agent")]++
		mu.Unlock()
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	client, err := NewClient(nil, Options{TimeoutSeconds: 5})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 2; j++ {
				req, err := fhttp.NewRequest(fhttp.MethodGet, srv.URL, nil)
				if err != nil {
					errs <- err
					return
				}
				resp, err := client.Do(req)
				if err != nil {
					errs <- err
					return
				}
				_ = resp.Body.Close()
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Do() error = %v", err)
	}

	total := 0
	for agent, n := range agents {
		if !strings.Contains(agent, "Mozilla/5.0") {
			t.Fatalf("unexpected User-Agent %q", agent)
		}
		total += n
	}
	if total != 16 {
		t.Fatalf("server saw %d requests, want 16", total)
	}
}

func TestClientReportsStatusAgainstServingProxy(t *testing.T) {
	rotator, _ := testRotator(t, "http://p1:8080", "http://p2:8080")
	statuses := map[string]int{"http://p1:8080": 429, "http://p2:8080": 200}

	var built sync.Map
	var builds atomic.Int32
	client := &Client{
		rotator:    rotator,
		userAgents: userAgents,
		newHTTP: func(proxy string) (tls_client.HttpClient, error) {
			builds.Add(1)
			transport := &fakeTransport{proxy: proxy, status: statuses[proxy]}
			built.Store(proxy, transport)
			return transport, nil
		},
		proxied: map[string]tls_client.HttpClient{},
		rand:    rand.New(rand.NewSource(1)),
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 4; j++ {
				req, _ := fhttp.NewRequest(fhttp.MethodGet, "http://jobs.example/search", nil)
				resp, err := client.Do(req)
				if err != nil {
					t.Errorf("Do() error = %v", err)
					return
				}
				_ = resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	if n := builds.Load(); n != 2 {
		t.Fatalf("built %d transports, want one per proxy", n)
	}
	if p2, ok := built.Load("http://p2:8080"); !ok || p2.(*fakeTransport).calls.Load() == 0 {
		t.Fatalf("healthy proxy served no requests")
	}

	rotator.mu.Lock()
	defer rotator.mu.Unlock()
	if strikes := rotator.byKey["http://p2:8080"].strikes; strikes != 0 {
		t.Fatalf("healthy proxy has %d strikes, want 0", strikes)
	}
	if strikes := rotator.byKey["http://p1:8080"].strikes; strikes == 0 {
		t.Fatalf("throttled proxy was never benched")
	}
}

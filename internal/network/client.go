package network

import (
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"sync"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	fhttpcookiejar "github.com/bogdanfinn/fhttp/cookiejar"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
)

var ErrRequestFailed = errors.New("request failed")

const DefaultTimeoutSeconds = 20

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// Options tunes the outbound client. A fixed UserAgent replaces the
// rotating browser identities.
type Options struct {
	TimeoutSeconds int
	UserAgent      string
}

// Client sends provider requests through a browser-like TLS stack,
// optionally rotating proxies. Each proxy gets its own transport so
// concurrent requests never share a proxy setting. Safe for concurrent use.
type Client struct {
	rotator    *Rotator
	userAgents []string
	newHTTP    func(proxy string) (tls_client.HttpClient, error)

	mu      sync.Mutex
	direct  tls_client.HttpClient
	proxied map[string]tls_client.HttpClient
	rand    *rand.Rand
}

func NewClient(rotator *Rotator, opts Options) (*Client, error) {
	timeout := opts.TimeoutSeconds
	if timeout <= 0 {
		timeout = DefaultTimeoutSeconds
	}

	agents := append([]string{}, userAgents...)
	if opts.UserAgent != "" {
		agents = []string{opts.UserAgent}
	}

	c := &Client{
		rotator:    rotator,
		userAgents: agents,
		newHTTP:    func(proxy string) (tls_client.HttpClient, error) { return newHTTPClient(timeout, proxy) },
		proxied:    map[string]tls_client.HttpClient{},
		rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	direct, err := c.newHTTP("")
	if err != nil {
		return nil, err
	}
	c.direct = direct
	return c, nil
}

func newHTTPClient(timeout int, proxy string) (tls_client.HttpClient, error) {
	jar, _ := fhttpcookiejar.New(nil)
	options := []tls_client.HttpClientOption{
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithTimeoutSeconds(timeout),
		tls_client.WithCookieJar(jar),
	}
	if proxy != "" {
		options = append(options, tls_client.WithProxyUrl(proxy))
	}
	return tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
}

func (c *Client) Do(req *fhttp.Request) (*fhttp.Response, error) {
	proxy, err := c.nextProxy()
	if err != nil {
		return nil, err
	}
	httpClient, err := c.clientFor(proxy)
	if err != nil {
		return nil, err
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.randomUA())
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		if proxy != nil {
			c.rotator.Bench(proxy)
		}
		return nil, errors.Join(ErrRequestFailed, err)
	}
	if proxy != nil {
		c.rotator.Report(proxy, resp.StatusCode)
	}
	return resp, nil
}

func (c *Client) nextProxy() (*url.URL, error) {
	if c.rotator == nil || c.rotator.Len() == 0 {
		return nil, nil
	}
	return c.rotator.Next()
}

// clientFor returns the transport bound to proxy, building it on first use.
// A nil proxy selects the direct transport.
func (c *Client) clientFor(proxy *url.URL) (tls_client.HttpClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if proxy == nil {
		return c.direct, nil
	}
	key := proxy.String()
	if httpClient, ok := c.proxied[key]; ok {
		return httpClient, nil
	}
	httpClient, err := c.newHTTP(key)
	if err != nil {
		return nil, fmt.Errorf("proxy %s: %w", proxy.Redacted(), err)
	}
	c.proxied[key] = httpClient
	return httpClient, nil
}

func (c *Client) randomUA() string {
	if len(c.userAgents) == 0 {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userAgents[c.rand.Intn(len(c.userAgents))]
}

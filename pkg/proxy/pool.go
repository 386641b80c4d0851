// Package proxy keeps a rotating list of outbound proxies and benches the
// ones that keep failing.
package proxy

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// ErrUnknownProxy is returned when reporting on a proxy the pool never held.
var ErrUnknownProxy = errors.New("proxy not found in pool")

type entry struct {
	url       *url.URL
	failures  int
	successes int
	benchedAt time.Time
	benched   bool
}

// Config defines settings for the Pool.
type Config struct {
	// MaxFailures in a row before a proxy is benched.
	MaxFailures int
	// Cooldown is how long a benched proxy sits out.
	Cooldown time.Duration
}

// Pool rotates through proxies round-robin. It is safe for concurrent use.
type Pool struct {
	mu          sync.Mutex
	entries     []*entry
	cursor      int
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time
}

// NewPool creates an empty pool. Zero config values take defaults of three
// failures and five minutes.
func NewPool(cfg Config) *Pool {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	return &Pool{maxFailures: cfg.MaxFailures, cooldown: cfg.Cooldown, now: time.Now}
}

// Add parses proxy URLs, defaulting the scheme to http.
func (p *Pool) Add(raw ...string) error {
	parsed := make([]*entry, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if !strings.Contains(r, "://") {
			r = "http://" + r
		}
		u, err := url.Parse(r)
		if err != nil {
			return fmt.Errorf("invalid proxy %q: %w", r, err)
		}
		if u.Host == "" {
			return fmt.Errorf("invalid proxy %q: missing host", r)
		}
		parsed = append(parsed, &entry{url: u})
	}

	p.mu.Lock()
	p.entries = append(p.entries, parsed...)
	p.mu.Unlock()
	return nil
}

// Load reads one proxy per line; blank lines and '#' comments are skipped.
func (p *Pool) Load(r io.Reader) error {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read proxy list: %w", err)
	}
	return p.Add(lines...)
}

// LoadFile is Load on the named file.
func (p *Pool) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open proxy list: %w", err)
	}
	defer f.Close()
	return p.Load(f)
}

// Len reports how many proxies the pool holds, benched or not.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Next returns the next usable proxy, or nil when the pool is empty or every
// proxy is benched.
func (p *Pool) Next() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for range p.entries {
		e := p.entries[p.cursor]
		p.cursor = (p.cursor + 1) % len(p.entries)

		if e.benched && now.Sub(e.benchedAt) >= p.cooldown {
			e.benched = false
			e.failures = 0
		}
		if !e.benched {
			return e.url
		}
	}
	return nil
}

// Report records the outcome of a request through u. A nil err counts as a
// success and forgives one earlier failure.
func (p *Pool) Report(u *url.URL, err error) error {
	if u == nil {
		return errors.New("proxy url cannot be nil")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	e := p.find(u)
	if e == nil {
		return ErrUnknownProxy
	}

	if err == nil {
		e.successes++
		if e.failures > 0 {
			e.failures--
		}
		return nil
	}

	e.failures++
	if e.failures >= p.maxFailures {
		e.benched = true
		e.benchedAt = p.now()
	}
	return nil
}

func (p *Pool) find(u *url.URL) *entry {
	target := u.String()
	for _, e := range p.entries {
		if e.url.String() == target {
			return e
		}
	}
	return nil
}

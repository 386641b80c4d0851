// Package useragent rotates browser User-Agent strings for page fetches.
package useragent

import (
	"crypto/rand"
	"math/big"
	"strings"
	"sync/atomic"
)

// Desktop is a set of current desktop browser User-Agents.
var Desktop = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:131.0) Gecko/20100101 Firefox/131.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14.7; rv:131.0) Gecko/20100101 Firefox/131.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.0 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36 Edg/130.0.0.0",
}

// Mode selects how a Pool hands out entries.
type Mode string

const (
	Sequential Mode = "sequential"
	Random     Mode = "random"
)

// Pool hands out User-Agents. It is safe for concurrent use.
type Pool struct {
	uas     []string
	mode    Mode
	counter atomic.Uint64
}

// NewPool copies uas into a new pool, falling back to Desktop when uas has
// no non-blank entries. An unknown mode behaves like Sequential.
func NewPool(uas []string, mode Mode) *Pool {
	cleaned := make([]string, 0, len(uas))
	for _, ua := range uas {
		if ua = strings.TrimSpace(ua); ua != "" {
			cleaned = append(cleaned, ua)
		}
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, Desktop...)
	}
	return &Pool{uas: cleaned, mode: mode}
}

// Next returns the next User-Agent according to the pool's mode.
func (p *Pool) Next() string {
	if p.mode == Random {
		return p.random()
	}
	return p.sequential()
}

func (p *Pool) sequential() string {
	if len(p.uas) == 0 {
		return ""
	}
	idx := p.counter.Add(1) - 1
	return p.uas[idx%uint64(len(p.uas))]
}

func (p *Pool) random() string {
	if len(p.uas) == 0 {
		return ""
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(p.uas))))
	if err != nil {
		return p.sequential()
	}
	return p.uas[n.Int64()]
}

// Len reports the number of entries in the pool.
func (p *Pool) Len() int { return len(p.uas) }

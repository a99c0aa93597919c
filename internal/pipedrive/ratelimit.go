package pipedrive

import (
	"sync"
	"time"
)

// RateProfile bundles every pacing knob for talking to the CRM. The
// aggressive profile is the normal mode; the client downgrades itself
// when the API starts answering 429.
type RateProfile struct {
	Name              string
	RequestsPerMinute int
	Delay             time.Duration
	MaxRetries        int
	BaseBackoff       time.Duration
	MaxBackoff        time.Duration
	RetryAfter429     []time.Duration
	Cooldown          time.Duration
	MaxConcurrent     int
	BatchSize         int
}

var profiles = map[string]RateProfile{
	"default": {
		Name:              "default",
		RequestsPerMinute: 60,
		Delay:             500 * time.Millisecond,
		MaxRetries:        3,
		BaseBackoff:       1 * time.Second,
		MaxBackoff:        300 * time.Second,
		RetryAfter429:     []time.Duration{60 * time.Second, 120 * time.Second, 180 * time.Second},
		Cooldown:          120 * time.Second,
		MaxConcurrent:     2,
		BatchSize:         25,
	},
	"conservative": {
		Name:              "conservative",
		RequestsPerMinute: 40,
		Delay:             1 * time.Second,
		MaxRetries:        5,
		BaseBackoff:       2 * time.Second,
		MaxBackoff:        600 * time.Second,
		RetryAfter429:     []time.Duration{120 * time.Second, 240 * time.Second, 360 * time.Second, 480 * time.Second, 600 * time.Second},
		Cooldown:          300 * time.Second,
		MaxConcurrent:     1,
		BatchSize:         10,
	},
	"aggressive": {
		Name:              "aggressive",
		RequestsPerMinute: 80,
		Delay:             200 * time.Millisecond,
		MaxRetries:        2,
		BaseBackoff:       1 * time.Second,
		MaxBackoff:        60 * time.Second,
		RetryAfter429:     []time.Duration{30 * time.Second, 60 * time.Second},
		Cooldown:          60 * time.Second,
		MaxConcurrent:     3,
		BatchSize:         50,
	},
}

// Profile returns a named profile, falling back to default.
func Profile(name string) RateProfile {
	if p, ok := profiles[name]; ok {
		return p
	}
	return profiles["default"]
}

// ProfileForErrorCount picks a profile from how many 429 responses were
// seen in the last hour.
func ProfileForErrorCount(n int) RateProfile {
	switch {
	case n > 10:
		return profiles["conservative"]
	case n > 5:
		return profiles["default"]
	default:
		return profiles["aggressive"]
	}
}

// throttle enforces the per-request delay and a cooldown window after a
// burst of 429s. Safe for concurrent use.
type throttle struct {
	mu            sync.Mutex
	lastRequest   time.Time
	cooldownUntil time.Time
	hits429       []time.Time
}

func (t *throttle) wait(delay time.Duration) {
	t.mu.Lock()
	now := time.Now()

	next := t.lastRequest.Add(delay)
	if t.cooldownUntil.After(next) {
		next = t.cooldownUntil
	}

	var sleep time.Duration
	if next.After(now) {
		sleep = next.Sub(now)
		t.lastRequest = next
	} else {
		t.lastRequest = now
	}
	t.mu.Unlock()

	if sleep > 0 {
		time.Sleep(sleep)
	}
}

func (t *throttle) record429(cooldown time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	t.hits429 = append(t.hits429, now)
	t.cooldownUntil = now.Add(cooldown)
}

// count429 returns how many 429s happened within the window.
func (t *throttle) count429(window time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := time.Now().Add(-window)
	kept := t.hits429[:0]
	for _, hit := range t.hits429 {
		if hit.After(cutoff) {
			kept = append(kept, hit)
		}
	}
	t.hits429 = kept
	return len(kept)
}

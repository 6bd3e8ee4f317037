// Package tinker implements the reputation record attached to an
// AuthedToken and its opaque signed cookie representation.
package tinker

import (
	"time"
)

const levelUpCooldown = 23 * time.Hour

// Tinker is the reputation counter attached to a token. LastCreatedThreadAt
// is populated only by thread creation, never by plain response writes.
type Tinker struct {
	AuthedToken         string `json:"authed_token"`
	WroteCount          uint32 `json:"wrote_count"`
	CreatedThreadCount  uint32 `json:"created_thread_count"`
	Level               uint32 `json:"level"`
	LastLevelUpAt       int64  `json:"last_level_up_at"`
	LastWroteAt         int64  `json:"last_wrote_at"`
	LastCreatedThreadAt *int64 `json:"last_created_thread_at,omitempty"`
}

// New creates the initial Tinker for a freshly issued AuthedToken.
func New(authedToken string, now time.Time) Tinker {
	return Tinker{
		AuthedToken:   authedToken,
		Level:         1,
		LastLevelUpAt: now.Unix(),
	}
}

// ActionOnWrite advances the counters for a plain response write. Level
// increments by exactly one when the 23h cooldown since the last level-up
// has elapsed.
func (t Tinker) ActionOnWrite(now time.Time) Tinker {
	ts := now.Unix()
	next := t
	next.WroteCount++
	next.LastWroteAt = ts

	if t.levelUpDue(ts) {
		next.Level++
		next.LastLevelUpAt = ts
	}

	return next
}

// ActionOnCreateThread advances the counters for a thread-creation write
// and stamps LastCreatedThreadAt per the canonical admin shape.
func (t Tinker) ActionOnCreateThread(now time.Time) Tinker {
	next := t.ActionOnWrite(now)
	ts := now.Unix()
	next.CreatedThreadCount++
	next.LastCreatedThreadAt = &ts
	return next
}

func (t Tinker) levelUpDue(nowUnix int64) bool {
	return t.LastLevelUpAt+int64(levelUpCooldown.Seconds()) < nowUnix
}

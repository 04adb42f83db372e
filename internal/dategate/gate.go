// Package dategate blocks new submissions during the recurring monthly
// close-out windows.
package dategate

import (
	"fmt"
	"strings"
	"time"
)

// DefaultBypassIdentity is the operational account allowed to submit during
// close-out.
const DefaultBypassIdentity = "user@jhipl.com"

// Window is an inclusive range of days of the month.
type Window struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Contains reports whether day falls inside the window.
func (w Window) Contains(day int) bool {
	return day >= w.From && day <= w.To
}

var windows = [...]Window{{2, 5}, {12, 15}, {22, 25}}

// Windows returns the blocked windows in calendar order.
func Windows() []Window {
	out := make([]Window, len(windows))
	copy(out, windows[:])
	return out
}

// Gate decides whether creation is allowed on a given day.
type Gate struct {
	// BypassIdentity is never blocked. Empty disables the bypass.
	BypassIdentity string
}

// New returns a Gate with the given bypass identity.
func New(bypass string) Gate {
	return Gate{BypassIdentity: normalize(bypass)}
}

// IsBlocked reports whether identity may not create records on today.
// Identities compare case-insensitively, ignoring surrounding space.
func (g Gate) IsBlocked(today time.Time, identity string) bool {
	if bypass := normalize(g.BypassIdentity); bypass != "" && normalize(identity) == bypass {
		return false
	}
	return blockedDay(today.Day())
}

func normalize(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

func blockedDay(day int) bool {
	for _, w := range windows {
		if w.Contains(day) {
			return true
		}
	}
	return false
}

// BlockedMessage names the blocked windows for the given action noun, for
// example "invoices" or "PO requests".
func BlockedMessage(actionType string) string {
	return fmt.Sprintf("You cannot create new %s between the 2nd-5th, 12th-15th and 22nd-25th of each month. Please try again after the blocked period.", actionType)
}

// Day is one calendar cell.
type Day struct {
	Date    string `json:"date"`
	Day     int    `json:"day"`
	Blocked bool   `json:"blocked"`
}

// Month lists every day of the month with its blocked flag for identity.
func (g Gate) Month(year int, month time.Month, identity string) []Day {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := make([]Day, 0, 31)
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		days = append(days, Day{
			Date:    d.Format("2006-01-02"),
			Day:     d.Day(),
			Blocked: g.IsBlocked(d, identity),
		})
	}
	return days
}

// Package countryrisk classifies countries against the FATF high-risk and
// watchlist jurisdictions.
package countryrisk

import (
	"sort"
	"strings"
	"sync/atomic"

	"github.com/okian/netrisk/internal/domain/model"
)

// Snapshot is one published version of the country list.
type Snapshot struct {
	HighRisk  []string `koanf:"high_risk" json:"high_risk"`
	Watchlist []string `koanf:"watchlist" json:"watchlist"`
}

// DefaultSnapshot returns the built-in FATF lists.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		HighRisk: []string{"Iran", "North Korea", "Myanmar", "Democratic People's Republic of Korea"},
		Watchlist: []string{
			"Pakistan", "Afghanistan", "Albania", "Barbados", "Burkina Faso", "Cameroon", "Croatia",
			"Democratic Republic of the Congo", "Gibraltar", "Haiti", "Jamaica", "Jordan", "Mali",
			"Mozambique", "Nigeria", "Panama", "Philippines", "Senegal", "South Africa", "South Sudan",
			"Syria", "Tanzania", "Turkey", "Uganda", "United Arab Emirates", "Vietnam", "Yemen",
		},
	}
}

var aliases = map[string]string{
	"dprk":    "north korea",
	"uae":     "united arab emirates",
	"drc":     "democratic republic of the congo",
	"türkiye": "turkey",
	"burma":   "myanmar",
}

func key(country string) string {
	k := strings.ToLower(strings.TrimSpace(country))
	if a, ok := aliases[k]; ok {
		return a
	}
	return k
}

type index struct {
	high  map[string]struct{}
	watch map[string]struct{}
}

func build(s Snapshot) *index {
	idx := &index{high: make(map[string]struct{}), watch: make(map[string]struct{})}
	for _, c := range s.HighRisk {
		if k := key(c); k != "" {
			idx.high[k] = struct{}{}
		}
	}
	for _, c := range s.Watchlist {
		if k := key(c); k != "" {
			if _, dup := idx.high[k]; !dup {
				idx.watch[k] = struct{}{}
			}
		}
	}
	return idx
}

// List is a concurrently readable country list. Replace swaps the whole
// list atomically; readers never observe a partial update.
type List struct {
	cur atomic.Pointer[index]
}

// NewList publishes s as the initial list.
func NewList(s Snapshot) *List {
	l := &List{}
	l.Replace(s)
	return l
}

// Replace publishes a new snapshot.
func (l *List) Replace(s Snapshot) {
	l.cur.Store(build(s))
}

// Level classifies a country name. Unknown or empty names are normal.
func (l *List) Level(country string) model.CountryRiskLevel {
	idx := l.cur.Load()
	k := key(country)
	if _, ok := idx.high[k]; ok {
		return model.CountryHighRisk
	}
	if _, ok := idx.watch[k]; ok {
		return model.CountryWatchlisted
	}
	return model.CountryNormal
}

// Sizes returns the number of high-risk and watchlisted entries.
func (l *List) Sizes() (highRisk, watchlist int) {
	idx := l.cur.Load()
	return len(idx.high), len(idx.watch)
}

// Snapshot returns the current list with normalized, sorted names.
func (l *List) Snapshot() Snapshot {
	idx := l.cur.Load()
	out := Snapshot{}
	for k := range idx.high {
		out.HighRisk = append(out.HighRisk, k)
	}
	for k := range idx.watch {
		out.Watchlist = append(out.Watchlist, k)
	}
	sort.Strings(out.HighRisk)
	sort.Strings(out.Watchlist)
	return out
}

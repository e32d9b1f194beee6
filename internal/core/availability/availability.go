// Package availability classifies drivers as free or busy for a requested duty shift
//
// Filters live in a Chain keyed by id. Every enabled filter runs for every driver so all
// failure reasons are reported; one failure makes the driver busy. Free drivers are ranked
// by the externally computed confidence score, then by name in Serbian collation order.
package availability

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"transitplan/internal/core/timerange"
)

// Shift is one duty shift a driver already holds on the target day
type Shift struct {
	LineID      string          `json:"lineId"`
	Duty        string          `json:"dutyName"`
	ShiftNumber int             `json:"shiftNumber"`
	Window      timerange.Range `json:"-"`
}

// Recommendation is the historical usage signal for a driver and duty
type Recommendation struct {
	HasDefault      bool    `json:"hasDefault"`
	UsageCount      int     `json:"usageCount"`
	UsagePercentage float64 `json:"usagePercentage"`
	ConfidenceScore float64 `json:"confidenceScore"`
	Priority        int     `json:"priority"`
	Note            string  `json:"note,omitempty"`
}

// NoDefault is the recommendation of a driver without any matching default
var NoDefault = Recommendation{Priority: 999}

// Candidate is a driver considered for the requested shift
type Candidate struct {
	ID             int64
	FirstName      string
	LastName       string
	Scheduled      []Shift
	Recommendation *Recommendation
}

// FullName is "First Last"
func (c Candidate) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

func (c Candidate) score() float64 {
	if c.Recommendation == nil {
		return 0
	}
	return c.Recommendation.ConfidenceScore
}

func (c Candidate) hasDefault() bool {
	return c.Recommendation != nil && c.Recommendation.HasDefault
}

// Request is the duty shift a driver is being selected for
type Request struct {
	LineID      string
	Duty        string
	ShiftNumber int
	Window      timerange.Range
}

// Outcome is the result of one filter for one driver
type Outcome struct {
	Passed bool   `json:"passed"`
	Reason string `json:"reason,omitempty"`
}

// Pass is the passing outcome
func Pass() Outcome { return Outcome{Passed: true} }

// Fail is a failing outcome with a reason
func Fail(format string, args ...any) Outcome {
	return Outcome{Passed: false, Reason: fmt.Sprintf(format, args...)}
}

// CheckFunc decides a single rule for a driver
type CheckFunc func(c Candidate, req Request) Outcome

// Filter is a named, toggleable rule
type Filter struct {
	ID          string
	Name        string
	Description string
	Enabled     bool
	Check       CheckFunc
}

// Info is the public description of a registered filter
type Info struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}

// FilterOutcome ties an outcome to the filter that produced it
type FilterOutcome struct {
	FilterID string `json:"filterId"`
	Outcome
}

// Classified is a candidate with its verdict
type Classified struct {
	Candidate
	Free     bool
	Outcomes []FilterOutcome
}

// Reasons lists failure reasons in filter order
func (c Classified) Reasons() []string {
	var out []string
	for _, o := range c.Outcomes {
		if !o.Passed && o.Reason != "" {
			out = append(out, o.Reason)
		}
	}
	return out
}

// Result splits a pool into ranked free drivers and busy drivers
type Result struct {
	Free []Classified
	Busy []Classified
}

// All returns free drivers first, then busy ones
func (r Result) All() []Classified {
	out := make([]Classified, 0, len(r.Free)+len(r.Busy))
	out = append(out, r.Free...)
	return append(out, r.Busy...)
}

// Chain is an ordered registry of filters, safe for concurrent use
type Chain struct {
	mu      sync.RWMutex
	order   []string
	filters map[string]Filter
}

// NewChain builds a chain from filters in registration order
func NewChain(filters ...Filter) (*Chain, error) {
	c := &Chain{filters: make(map[string]Filter, len(filters))}
	for _, f := range filters {
		if err := c.Register(f); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Default returns the built in chain
func Default() *Chain {
	c, err := NewChain(TimeOverlap(), OneDutyPerDay())
	if err != nil {
		panic(err)
	}
	return c
}

// Register adds a filter; ids are unique
func (c *Chain) Register(f Filter) error {
	if f.ID == "" || f.Check == nil {
		return fmt.Errorf("availability: filter needs an id and a check")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.filters[f.ID]; dup {
		return fmt.Errorf("availability: filter %q already registered", f.ID)
	}
	c.filters[f.ID] = f
	c.order = append(c.order, f.ID)
	return nil
}

// SetEnabled toggles a filter by id
func (c *Chain) SetEnabled(id string, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.filters[id]
	if !ok {
		return fmt.Errorf("availability: unknown filter %q", id)
	}
	f.Enabled = enabled
	c.filters[id] = f
	return nil
}

// Has reports whether a filter id is registered
func (c *Chain) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.filters[id]
	return ok
}

// Clone copies the chain so per request toggles leave the original alone
func (c *Chain) Clone() *Chain {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := &Chain{
		order:   append([]string(nil), c.order...),
		filters: make(map[string]Filter, len(c.filters)),
	}
	for k, v := range c.filters {
		out.filters[k] = v
	}
	return out
}

// Filters describes the registered filters in order
func (c *Chain) Filters() []Info {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Info, 0, len(c.order))
	for _, id := range c.order {
		f := c.filters[id]
		out = append(out, Info{ID: f.ID, Name: f.Name, Description: f.Description, Enabled: f.Enabled})
	}
	return out
}

func (c *Chain) enabled() []Filter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Filter, 0, len(c.order))
	for _, id := range c.order {
		if f := c.filters[id]; f.Enabled {
			out = append(out, f)
		}
	}
	return out
}

// Evaluate runs every enabled filter against one candidate
// a candidate with nothing scheduled is free without consulting filters
func (c *Chain) Evaluate(cand Candidate, req Request) Classified {
	return evaluate(c.enabled(), cand, req)
}

func evaluate(filters []Filter, cand Candidate, req Request) Classified {
	out := Classified{Candidate: cand, Free: true}
	if len(cand.Scheduled) == 0 {
		return out
	}
	for _, f := range filters {
		o := f.Check(cand, req)
		out.Outcomes = append(out.Outcomes, FilterOutcome{FilterID: f.ID, Outcome: o})
		if !o.Passed {
			out.Free = false
		}
	}
	return out
}

// Classify evaluates the pool and ranks the free drivers
func (c *Chain) Classify(pool []Candidate, req Request) Result {
	filters := c.enabled()
	var res Result
	for _, cand := range pool {
		v := evaluate(filters, cand, req)
		if v.Free {
			res.Free = append(res.Free, v)
		} else {
			res.Busy = append(res.Busy, v)
		}
	}
	Rank(res.Free)
	byName(res.Busy)
	return res
}

// Rank orders drivers by confidence score descending, drivers with a default ahead
// of equal scored ones without, then by full name in Serbian collation
func Rank(list []Classified) {
	col := collate.New(language.Serbian)
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if sa, sb := a.score(), b.score(); sa != sb {
			return sa > sb
		}
		if da, db := a.hasDefault(), b.hasDefault(); da != db {
			return da
		}
		return col.CompareString(a.FullName(), b.FullName()) < 0
	})
}

func byName(list []Classified) {
	col := collate.New(language.Serbian)
	sort.SliceStable(list, func(i, j int) bool {
		return col.CompareString(list[i].FullName(), list[j].FullName()) < 0
	})
}

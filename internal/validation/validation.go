// Package validation evaluates a plan against coaching rules and raises
// alerts, some of which carry a fix command.
package validation

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/abhisek/weekplan/internal/command"
	"github.com/abhisek/weekplan/internal/plan"
	"github.com/abhisek/weekplan/internal/slotgrid"
)

// Severity orders alerts; errors first.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warn"
	SeverityInfo  Severity = "info"
)

func (s Severity) rank() int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarn:
		return 1
	}
	return 2
}

// Rule names.
const (
	RuleOverlap       = "overlapping-sessions"
	RuleInvalidVolume = "invalid-volume"
	RuleMaxSessions   = "max-sessions-week"
	RuleLowIntensity  = "low-intensity"
	RuleEmptySession  = "empty-session"
)

// alertNamespace seeds deterministic alert ids.
var alertNamespace = uuid.MustParse("6f1c2a8e-3d4b-5e6f-8a9b-0c1d2e3f4a5b")

// Alert is a validation finding. Fix, when present, is an ordinary command
// executed through the history.
type Alert struct {
	ID       string          `json:"id"`
	Rule     string          `json:"rule"`
	Severity Severity        `json:"severity"`
	Message  string          `json:"message"`
	TargetID string          `json:"targetId"`
	FixLabel string          `json:"fixLabel,omitempty"`
	Fix      command.Command `json:"-"`
}

// Fixable reports whether the alert carries a fix.
func (a Alert) Fixable() bool { return a.Fix != nil }

// Config holds rule thresholds.
type Config struct {
	MaxSessionsPerWeek int     `yaml:"max_sessions_per_week"`
	MinDailyLoad       float64 `yaml:"min_daily_load"` // kg, sum of series x reps x peso
}

// DefaultConfig returns the thresholds used when none are configured.
func DefaultConfig() Config {
	return Config{
		MaxSessionsPerWeek: 6,
		MinDailyLoad:       2000,
	}
}

type emitFunc = func(target, msg, fixLabel string, fix command.Command)

type rule struct {
	name     string
	severity Severity
	check    func(e *Engine, p *plan.Plan, emit emitFunc)
}

// Engine is stateless apart from its thresholds; Evaluate may be called
// concurrently.
type Engine struct {
	cfg   Config
	grid  *slotgrid.Grid
	rules []rule
}

// New creates an engine with every rule enabled.
func New(cfg Config) *Engine {
	e := &Engine{cfg: cfg, grid: &slotgrid.Grid{}}
	e.rules = []rule{
		{name: RuleOverlap, severity: SeverityError, check: checkOverlap},
		{name: RuleInvalidVolume, severity: SeverityError, check: checkVolume},
		{name: RuleMaxSessions, severity: SeverityWarn, check: checkMaxSessions},
		{name: RuleLowIntensity, severity: SeverityWarn, check: checkIntensity},
		{name: RuleEmptySession, severity: SeverityInfo, check: checkEmpty},
	}
	return e
}

// Rules lists the rule names in evaluation order.
func (e *Engine) Rules() []string {
	out := make([]string, len(e.rules))
	for i, r := range e.rules {
		out[i] = r.name
	}
	return out
}

// Evaluate runs every rule. The result is sorted by severity, rule order
// and target id, so equal plans yield equal alerts.
func (e *Engine) Evaluate(p *plan.Plan) []Alert {
	type ranked struct {
		Alert
		order int
	}
	var found []ranked
	for i, r := range e.rules {
		r.check(e, p, func(target, msg, fixLabel string, fix command.Command) {
			a := Alert{
				ID:       AlertID(r.name, target),
				Rule:     r.name,
				Severity: r.severity,
				Message:  msg,
				TargetID: target,
			}
			if fix != nil && !command.IsNoOp(fix) {
				a.Fix = fix
				a.FixLabel = fixLabel
			}
			found = append(found, ranked{Alert: a, order: i})
		})
	}
	sort.SliceStable(found, func(i, j int) bool {
		a, b := found[i], found[j]
		if a.Severity.rank() != b.Severity.rank() {
			return a.Severity.rank() < b.Severity.rank()
		}
		if a.order != b.order {
			return a.order < b.order
		}
		return a.TargetID < b.TargetID
	})
	out := make([]Alert, len(found))
	for i, r := range found {
		out[i] = r.Alert
	}
	return out
}

// AlertID derives the stable id of the alert raised by rule on target.
func AlertID(rule, target string) string {
	return uuid.NewSHA1(alertNamespace, []byte(rule+"|"+target)).String()
}

// Find returns the alert with the given id.
func Find(alerts []Alert, id string) (Alert, bool) {
	for _, a := range alerts {
		if a.ID == id {
			return a, true
		}
	}
	return Alert{}, false
}

func dayTarget(w, d int) string {
	return fmt.Sprintf("w%d/d%d", w, d)
}

package lifecycle

import (
	"fmt"
	"time"

	"github.com/okian/roster/internal/domain/model"
	"github.com/okian/roster/internal/domain/roster"
)

// Renewal modes.
const (
	ModeBulk      = "bulk"
	ModeSelective = "selective"
)

// Target selects the engagements a renewal applies to.
type Target struct {
	mode         string
	name         string
	threshold    int
	hasThreshold bool
	pred         func(model.Engagement) bool
	desc         string
}

// AllExpiring targets every engagement with known remaining days at most threshold.
func AllExpiring(threshold int) Target {
	return Target{
		mode:         ModeBulk,
		threshold:    threshold,
		hasThreshold: true,
		pred: func(e model.Engagement) bool {
			d, ok := e.Remaining()
			return ok && d <= threshold
		},
		desc: fmt.Sprintf("all expiring within %d days", threshold),
	}
}

// Matching targets every engagement for which pred returns true.
func Matching(pred func(model.Engagement) bool) Target {
	return Target{mode: ModeBulk, pred: pred, desc: "matching predicate"}
}

// ByName targets the single engagement with the given name.
func ByName(name string) Target {
	return Target{
		mode: ModeSelective,
		name: name,
		pred: func(e model.Engagement) bool { return e.Name == name },
		desc: fmt.Sprintf("engagement %q", name),
	}
}

// Mode returns ModeBulk or ModeSelective.
func (t Target) Mode() string { return t.mode }

// Name returns the engagement name of a selective target, empty otherwise.
func (t Target) Name() string { return t.name }

func (t Target) String() string { return t.desc }

// RenewResult describes an applied renewal.
type RenewResult struct {
	Mode          string   `json:"mode"`
	ExtensionDays int      `json:"extension_days"`
	Renewed       []string `json:"renewed"` // names, in store order
}

// Renew advances the end date of every engagement selected by target by
// days calendar days, then recomputes the remaining days at asOf so no
// derived value is stale when it returns.
//
// The selection is taken against remaining days computed at asOf before
// anything changes. Engagements with a null end date are never renewed. An
// out-of-range length, a malformed target, or a selective target that
// matches nothing returns an *InvalidParameterError and leaves the end dates
// untouched. A bulk target that matches nothing is not an error.
func (eng *Engine) Renew(s *roster.Store, target Target, days int, asOf time.Time) (RenewResult, error) {
	if days < eng.minExtension || days > eng.maxExtension {
		return RenewResult{}, &InvalidParameterError{
			Param:  "extension_days",
			Value:  days,
			Reason: fmt.Sprintf("must be between %d and %d", eng.minExtension, eng.maxExtension),
		}
	}
	if target.pred == nil {
		return RenewResult{}, &InvalidParameterError{Param: "target", Value: target.desc, Reason: "no selector"}
	}
	if target.hasThreshold && target.threshold < 0 {
		return RenewResult{}, &InvalidParameterError{Param: "threshold", Value: target.threshold, Reason: "must not be negative"}
	}

	eng.Recompute(s, asOf)

	selected := make(map[string]struct{})
	res := RenewResult{Mode: target.mode, ExtensionDays: days, Renewed: make([]string, 0)}
	for _, e := range s.Records() {
		if !target.pred(e) {
			continue
		}
		if !e.End.Valid {
			if target.mode == ModeSelective {
				return RenewResult{}, &InvalidParameterError{Param: "target", Value: target.name, Reason: "end date is unknown"}
			}
			continue
		}
		selected[e.Name] = struct{}{}
		res.Renewed = append(res.Renewed, e.Name)
	}
	if target.mode == ModeSelective && len(selected) == 0 {
		return RenewResult{}, &InvalidParameterError{Param: "target", Value: target.name, Reason: "no engagement with this name"}
	}

	s.UpdateEndDate(
		func(e model.Engagement) bool {
			_, ok := selected[e.Name]
			return ok
		},
		func(d model.Date) model.Date { return d.AddDays(days) },
	)
	eng.Recompute(s, asOf)
	return res, nil
}

// SetEndDate replaces the end date of the named engagement and recomputes
// the remaining days at asOf.
func (eng *Engine) SetEndDate(s *roster.Store, name string, end model.Date, asOf time.Time) error {
	if !end.Valid {
		return &InvalidParameterError{Param: "end", Value: end, Reason: "must be a valid date"}
	}
	if _, ok := s.Find(name); !ok {
		return &InvalidParameterError{Param: "target", Value: name, Reason: "no engagement with this name"}
	}
	s.ReplaceEndDate(func(e model.Engagement) bool { return e.Name == name }, end)
	eng.Recompute(s, asOf)
	return nil
}

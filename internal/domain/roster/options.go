package roster

import "time"

// DatePolicy decides what happens to a row whose date cell does not parse.
type DatePolicy int

const (
	// DatePolicyCoerce keeps the row with a null date (best effort).
	DatePolicyCoerce DatePolicy = iota
	// DatePolicyReject drops the row.
	DatePolicyReject
)

// String returns the configuration name of the policy.
func (p DatePolicy) String() string {
	if p == DatePolicyReject {
		return "reject"
	}
	return "coerce"
}

// ParseDatePolicy maps a configuration value to a DatePolicy. Unknown values
// report ok=false.
func ParseDatePolicy(s string) (DatePolicy, bool) {
	switch s {
	case "", "coerce":
		return DatePolicyCoerce, true
	case "reject":
		return DatePolicyReject, true
	}
	return DatePolicyCoerce, false
}

// DefaultDateLayouts are tried in order when parsing date cells.
var DefaultDateLayouts = []string{
	time.DateOnly,
	"2006/01/02",
	"02/01/2006",
	time.DateTime,
	time.RFC3339,
}

type options struct {
	policy  DatePolicy
	layouts []string
}

// Option applies a configuration option to Load.
type Option func(*options)

// WithDatePolicy sets how unparseable date cells are handled.
func WithDatePolicy(p DatePolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithDateLayouts replaces the accepted date layouts. An empty list keeps the defaults.
func WithDateLayouts(layouts ...string) Option {
	return func(o *options) {
		if len(layouts) > 0 {
			o.layouts = append([]string(nil), layouts...)
		}
	}
}

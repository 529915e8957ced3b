// Package model contains domain models passed between layers.
package model

// Engagement is one row of the roster: a contractor and the contract window.
type Engagement struct {
	Row       int    // 1-based data row in the source file
	Name      string // unique key for individual renewals
	Specialty string // free-form label, e.g. "DevOps", "Data"
	Start     Date
	End       Date

	// DaysRemaining is derived from End and a reference date. It is only
	// meaningful when RemainingKnown is true.
	DaysRemaining  int
	RemainingKnown bool

	// Extra holds unrecognised cells in file order, passed through on export.
	// Headers may repeat, so cells are addressed by column index.
	Extra []Cell

	// RawStart and RawEnd keep the source cell text so unparsed dates can be
	// written back unchanged.
	RawStart string
	RawEnd   string
}

// Remaining returns the derived remaining days and whether they are known.
func (e Engagement) Remaining() (int, bool) {
	return e.DaysRemaining, e.RemainingKnown
}

// Clone returns a copy that shares no mutable state with e.
func (e Engagement) Clone() Engagement {
	c := e
	if e.Extra != nil {
		c.Extra = append([]Cell(nil), e.Extra...)
	}
	return c
}

// Cell is one unrecognised column value of a row.
type Cell struct {
	Index  int    // 0-based column position in the source header
	Header string // column label, not necessarily unique
	Value  string
}

// ExtraAt returns the extra cell value at column index i.
func (e Engagement) ExtraAt(i int) (string, bool) {
	for _, c := range e.Extra {
		if c.Index == i {
			return c.Value, true
		}
	}
	return "", false
}

// Bucket is the lifecycle state of an engagement relative to a threshold.
type Bucket string

const (
	BucketActive       Bucket = "ACTIVE"
	BucketExpiringSoon Bucket = "EXPIRING_SOON"
	BucketExpired      Bucket = "EXPIRED"
	// BucketUnknown marks an engagement whose end date could not be parsed.
	BucketUnknown Bucket = "UNKNOWN"
)

// Buckets is the disjoint partition of a roster. The four counts always sum
// to the roster total.
type Buckets struct {
	Active       int `json:"active"`
	ExpiringSoon int `json:"expiring_soon"`
	Expired      int `json:"expired"`
	Unknown      int `json:"unknown"`
}

// Total returns the number of engagements accounted for by the partition.
func (b Buckets) Total() int {
	return b.Active + b.ExpiringSoon + b.Expired + b.Unknown
}

// RosterStatus is the aggregate view of a roster at a reference date.
//
// ExpiringSoon counts every engagement with DaysRemaining <= ThresholdDays,
// expired ones included, so it overlaps Expired. Buckets carries the
// non-overlapping accounting.
type RosterStatus struct {
	DatasetID          string         `json:"dataset_id"`
	AsOf               string         `json:"as_of"` // YYYY-MM-DD reference date of the derived fields
	ThresholdDays      int            `json:"threshold_days"`
	Total              int            `json:"total"`
	Expired            int            `json:"expired"`
	ExpiringSoon       int            `json:"expiring_soon"`
	AverageRemaining   *float64       `json:"average_remaining"` // nil when no engagement has days left
	SpecialtyHistogram map[string]int `json:"specialty_histogram"`
	Buckets            Buckets        `json:"buckets"`
}

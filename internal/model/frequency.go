package model

// FrequencyKind is the persisted tag of a Frequency.
type FrequencyKind string

const (
	FrequencyMinutes       FrequencyKind = "minutes"
	FrequencyHours         FrequencyKind = "hours"
	FrequencyDaily         FrequencyKind = "daily"
	FrequencySpecificTimes FrequencyKind = "specific_times"
	FrequencyCustom        FrequencyKind = "custom"
)

func (k FrequencyKind) Valid() bool {
	switch k {
	case FrequencyMinutes, FrequencyHours, FrequencyDaily, FrequencySpecificTimes, FrequencyCustom:
		return true
	default:
		return false
	}
}

// MaxIntervalMinutes caps any frequency or escalation threshold at ten years,
// keeping the derived durations well inside time.Duration.
const MaxIntervalMinutes = 10 * 365 * 24 * 60

// MaxValue is the largest magnitude accepted for the kind.
func (k FrequencyKind) MaxValue() int {
	switch k {
	case FrequencyHours:
		return MaxIntervalMinutes / 60
	case FrequencyDaily:
		return MaxIntervalMinutes / (24 * 60)
	default:
		return MaxIntervalMinutes
	}
}

// Frequency is a closed sum type: Minutes, Hours, Daily, SpecificTimes or Custom.
type Frequency interface {
	Kind() FrequencyKind
	Magnitude() int
	sealed()
}

type Minutes struct{ N int }

type Hours struct{ N int }

// Daily repeats once per 24h; its magnitude is kept only for storage round-trips.
type Daily struct{ N int }

type SpecificTimes struct{ N int }

type Custom struct{ N int }

func (Minutes) Kind() FrequencyKind       { return FrequencyMinutes }
func (Hours) Kind() FrequencyKind         { return FrequencyHours }
func (Daily) Kind() FrequencyKind         { return FrequencyDaily }
func (SpecificTimes) Kind() FrequencyKind { return FrequencySpecificTimes }
func (Custom) Kind() FrequencyKind        { return FrequencyCustom }

func (f Minutes) Magnitude() int       { return f.N }
func (f Hours) Magnitude() int         { return f.N }
func (f Daily) Magnitude() int         { return f.N }
func (f SpecificTimes) Magnitude() int { return f.N }
func (f Custom) Magnitude() int        { return f.N }

func (Minutes) sealed()       {}
func (Hours) sealed()         {}
func (Daily) sealed()         {}
func (SpecificTimes) sealed() {}
func (Custom) sealed()        {}

// NewFrequency rebuilds the sum type from its stored tag and magnitude.
// Unknown tags yield nil.
func NewFrequency(kind FrequencyKind, n int) Frequency {
	switch kind {
	case FrequencyMinutes:
		return Minutes{N: n}
	case FrequencyHours:
		return Hours{N: n}
	case FrequencyDaily:
		return Daily{N: n}
	case FrequencySpecificTimes:
		return SpecificTimes{N: n}
	case FrequencyCustom:
		return Custom{N: n}
	default:
		return nil
	}
}

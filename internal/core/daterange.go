package core

import "time"

type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the inclusive range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// RangeSelection is either a "last N days" preset or an explicit custom pair.
type RangeSelection struct {
	LastDays    int
	CustomStart time.Time
	CustomEnd   time.Time
}

func LastNDays(n int) RangeSelection { return RangeSelection{LastDays: n} }

func CustomRange(start, end time.Time) RangeSelection {
	return RangeSelection{CustomStart: start, CustomEnd: end}
}

func (s RangeSelection) IsCustom() bool {
	return !s.CustomStart.IsZero() || !s.CustomEnd.IsZero()
}

// ResolveRange turns a selection into concrete whole-day bounds relative to
// now. Custom ranges win over presets.
func ResolveRange(sel RangeSelection, now time.Time) (DateRange, error) {
	if sel.IsCustom() {
		if sel.CustomStart.IsZero() || sel.CustomEnd.IsZero() {
			return DateRange{}, Validationf("custom range needs both start and end")
		}
		if sel.CustomEnd.Before(sel.CustomStart) {
			return DateRange{}, Validationf("custom range end must not be before start")
		}
		return DateRange{Start: StartOfDay(sel.CustomStart), End: EndOfDay(sel.CustomEnd)}, nil
	}
	if sel.LastDays < 1 {
		return DateRange{}, Validationf("days must be at least 1")
	}
	return DateRange{
		Start: StartOfDay(now).AddDate(0, 0, -(sel.LastDays - 1)),
		End:   EndOfDay(now),
	}, nil
}

// DefaultPresetDays is the range a granularity starts with.
func DefaultPresetDays(g Granularity) int {
	switch g {
	case Day:
		return 7
	case Week:
		return 30
	case Year:
		return 1825
	default:
		return 365
	}
}

const (
	PresetRange RangeMode = iota
	CustomRangeMode
)

// RangeMode is the state of a RangeSelector.
type RangeMode int

func (m RangeMode) String() string {
	if m == CustomRangeMode {
		return "custom"
	}
	return "preset"
}

// RangeSelector tracks the analytics range choice. Changing granularity always
// drops back to that granularity's default preset.
type RangeSelector struct {
	granularity Granularity
	mode        RangeMode
	sel         RangeSelection
}

func NewRangeSelector(g Granularity) *RangeSelector {
	rs := &RangeSelector{}
	rs.SetGranularity(g)
	return rs
}

func (rs *RangeSelector) SetGranularity(g Granularity) {
	rs.granularity = g
	rs.mode = PresetRange
	rs.sel = LastNDays(DefaultPresetDays(g))
}

func (rs *RangeSelector) SelectPreset(days int) {
	rs.mode = PresetRange
	rs.sel = LastNDays(days)
}

func (rs *RangeSelector) SelectCustom(start, end time.Time) {
	rs.mode = CustomRangeMode
	rs.sel = CustomRange(start, end)
}

func (rs *RangeSelector) Granularity() Granularity  { return rs.granularity }
func (rs *RangeSelector) Mode() RangeMode           { return rs.mode }
func (rs *RangeSelector) Selection() RangeSelection { return rs.sel }

// Range resolves the current selection relative to now.
func (rs *RangeSelector) Range(now time.Time) (DateRange, error) {
	return ResolveRange(rs.sel, now)
}

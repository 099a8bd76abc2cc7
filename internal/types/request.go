package types

// RequestPeriod is the inclusive local-date range a bill computation
// covers.
type RequestPeriod struct {
	StartLocalDate CivilDate
	EndLocalDate   CivilDate
}

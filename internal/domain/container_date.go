package domain

import "time"

// ContainerDate is the next emptying of a single bin as reported by the operator.
type ContainerDate struct {
	Label string
	Date  *time.Time // nil when missing or unparseable
}

// HasDate reports whether the operator returned a usable date.
func (cd ContainerDate) HasDate() bool {
	return cd.Date != nil
}

// ISODate renders the date part as YYYY-MM-DD, or "" when absent.
func (cd ContainerDate) ISODate() string {
	if cd.Date == nil {
		return ""
	}
	return cd.Date.Format("2006-01-02")
}

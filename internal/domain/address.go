package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Address identifies a household to look up.
type Address struct {
	Municipality Municipality
	Street       string
	Number       string // may carry a letter suffix, e.g. "12B"
	City         string
}

var idUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// ID is a stable, key-safe identifier for the address. The city is part of it
// since one municipality spans several postal towns.
func (a Address) ID() string {
	raw := strings.ToLower(fmt.Sprintf("%s_%s_%s_%s", a.Municipality, a.Street, a.Number, a.City))
	raw = strings.NewReplacer("å", "a", "ä", "a", "ö", "o", "é", "e").Replace(raw)
	return strings.Trim(idUnsafe.ReplaceAllString(raw, "_"), "_")
}

func (a Address) Render() string {
	return fmt.Sprintf("%s %s, %s (%s)", a.Street, a.Number, a.City, a.Municipality.DisplayName())
}

package domain

import (
	"fmt"
	"strings"
)

type Municipality string

const (
	MunicipalityKavlinge Municipality = "kavlinge"
	MunicipalityLomma    Municipality = "lomma"
	MunicipalitySvedala  Municipality = "svedala"
)

var municipalityNames = map[Municipality]string{
	MunicipalityKavlinge: "Kävlinge",
	MunicipalityLomma:    "Lomma",
	MunicipalitySvedala:  "Svedala",
}

// SupportedMunicipalities lists the municipality keys in a stable order.
func SupportedMunicipalities() []Municipality {
	return []Municipality{MunicipalityKavlinge, MunicipalityLomma, MunicipalitySvedala}
}

func (m Municipality) IsValid() bool {
	_, ok := municipalityNames[m]
	return ok
}

// DisplayName returns the human readable name, e.g. "Kävlinge".
func (m Municipality) DisplayName() string {
	if name, ok := municipalityNames[m]; ok {
		return name
	}
	return string(m)
}

func ParseMunicipality(s string) (Municipality, error) {
	m := Municipality(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", fmt.Errorf("unsupported municipality %q", s)
	}
	return m, nil
}

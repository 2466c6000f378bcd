package models

import "fmt"

// Domain selects which document corpus, index partition and persona apply.
type Domain string

const (
	DomainSOP Domain = "SOP"
	DomainHC  Domain = "HC"
)

// Domains lists every configured domain in a fixed order.
func Domains() []Domain {
	return []Domain{DomainSOP, DomainHC}
}

// ParseDomain normalizes user input into a Domain value.
func ParseDomain(s string) (Domain, error) {
	switch s {
	case "SOP", "sop":
		return DomainSOP, nil
	case "HC", "hc":
		return DomainHC, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrDomainNotConfigured, s)
	}
}

package models

import "strings"

// Domain identifies one of the independent challenge tracks
type Domain string

const (
	DomainSE Domain = "SE"
	DomainML Domain = "ML"
	DomainAI Domain = "AI"
)

// ProgramDays is the length of the daily program in every domain
const ProgramDays = 60

// Domains lists every track in display order
var Domains = []Domain{DomainSE, DomainML, DomainAI}

// IsValid reports whether d is a known domain
func (d Domain) IsValid() bool {
	switch d {
	case DomainSE, DomainML, DomainAI:
		return true
	}
	return false
}

// ParseDomain normalizes user input ("se", " ML ") into a Domain
func ParseDomain(s string) (Domain, bool) {
	d := Domain(strings.ToUpper(strings.TrimSpace(s)))
	return d, d.IsValid()
}

// Name returns the human readable track name
func (d Domain) Name() string {
	switch d {
	case DomainSE:
		return "Software Engineering"
	case DomainML:
		return "Machine Learning"
	case DomainAI:
		return "Artificial Intelligence"
	}
	return string(d)
}

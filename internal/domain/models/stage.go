package models

import (
	"fmt"
	"strings"
)

// Stage is a produce record's position in the supply chain.
type Stage string

const (
	StageCreated     Stage = "created"
	StageDistributed Stage = "distributed"
	StageRetailed    Stage = "retailed"
	StageVerified    Stage = "verified"
)

// Stages lists every stage in chain order.
var Stages = []Stage{StageCreated, StageDistributed, StageRetailed, StageVerified}

var roleStages = map[string]Stage{
	"farmer":      StageCreated,
	"distributor": StageDistributed,
	"retailer":    StageRetailed,
	"customer":    StageVerified,
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	switch s {
	case StageCreated, StageDistributed, StageRetailed, StageVerified:
		return true
	}
	return false
}

// Next returns the stage that follows s, or false when s is terminal.
func (s Stage) Next() (Stage, bool) {
	switch s {
	case StageCreated:
		return StageDistributed, true
	case StageDistributed:
		return StageRetailed, true
	case StageRetailed:
		return StageVerified, true
	}
	return "", false
}

// CodePrefix is the prefix carried by codes issued on entering s.
func (s Stage) CodePrefix() string {
	switch s {
	case StageCreated:
		return "FARM"
	case StageDistributed:
		return "DIST"
	case StageRetailed, StageVerified:
		return "RETL"
	}
	return "QR"
}

// ParseStage converts free-form input into a Stage.
func ParseStage(value string) (Stage, error) {
	s := Stage(strings.ToLower(strings.TrimSpace(value)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown stage %q", value)
	}
	return s, nil
}

// StageForRole maps a dashboard role (farmer, distributor, retailer, customer)
// to the stage whose records that role works on. Stage names are accepted too.
func StageForRole(role string) (Stage, error) {
	normalized := strings.ToLower(strings.TrimSpace(role))
	if s, ok := roleStages[normalized]; ok {
		return s, nil
	}
	return ParseStage(normalized)
}

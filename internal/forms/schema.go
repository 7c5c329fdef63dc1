package forms

import (
	"fmt"
	"strings"
)

type IdentityKind string

const (
	IdentityDay        IdentityKind = "day"
	IdentityShift      IdentityKind = "shift"
	IdentityStandalone IdentityKind = "standalone"
)

type RowKeyKind string

const (
	RowKeyCheckpoint RowKeyKind = "checkpoint"
	RowKeyIndex      RowKeyKind = "index"
	RowKeyNone       RowKeyKind = "none"
)

type Strategy string

const (
	StrategyMerge   Strategy = "merge"
	StrategyReplace Strategy = "replace"
)

type Scope string

const (
	ScopeNone  Scope = "none"
	ScopeDay   Scope = "day"
	ScopeShift Scope = "shift"
)

// EAVPolicy selects how custom values are written.
// Sparse skips empty and zero values; explicit upserts every provided pair.
type EAVPolicy string

const (
	EAVSparse   EAVPolicy = "sparse"
	EAVExplicit EAVPolicy = "explicit"
)

// EAVKey selects how a custom value points at its owner.
type EAVKey string

const (
	EAVKeyRecord   EAVKey = "record"
	EAVKeyIdentity EAVKey = "identity"
)

type FieldKind string

const (
	KindNumber FieldKind = "number"
	KindText   FieldKind = "text"
	KindBool   FieldKind = "bool"
)

type Field struct {
	Key   string    `yaml:"key" json:"key"`
	Label string    `yaml:"label" json:"label"`
	Kind  FieldKind `yaml:"kind" json:"kind"`
	Group string    `yaml:"group,omitempty" json:"group,omitempty"`
	Width float64   `yaml:"width,omitempty" json:"width,omitempty"`
}

// Slot is one position of a sign-off chain. AssignField names the scalar
// that carries the assigned person; empty means a role-wide queue.
type Slot struct {
	Role         string `yaml:"role" json:"role"`
	Label        string `yaml:"label" json:"label"`
	AssignField  string `yaml:"assignField,omitempty" json:"assignField,omitempty"`
	SignedAtSave bool   `yaml:"signedAtSave,omitempty" json:"signedAtSave,omitempty"`
}

type SeedCheckpoint struct {
	Description string `yaml:"description"`
	Method      string `yaml:"method"`
}

// Schema describes one form: identity shape, scalar fields, save strategy,
// custom value policy and sign-off chain.
type Schema struct {
	Type     string `yaml:"type" json:"type"`
	Title    string `yaml:"title" json:"title"`
	Subtitle string `yaml:"subtitle,omitempty" json:"subtitle,omitempty"`
	Footer   string `yaml:"footer,omitempty" json:"footer,omitempty"`
	Legend   string `yaml:"legend,omitempty" json:"legend,omitempty"`

	Identity     IdentityKind `yaml:"identity" json:"identity"`
	RowKey       RowKeyKind   `yaml:"rowKey" json:"rowKey"`
	Strategy     Strategy     `yaml:"strategy" json:"strategy"`
	ReplaceScope Scope        `yaml:"replaceScope,omitempty" json:"replaceScope,omitempty"`
	EAV          EAVPolicy    `yaml:"eav" json:"eav"`
	EAVKey       EAVKey       `yaml:"eavKey" json:"eavKey"`
	EAVNumeric   bool         `yaml:"eavNumeric,omitempty" json:"eavNumeric,omitempty"`

	Fields    []Field `yaml:"fields" json:"fields"`
	ShiftMeta []Field `yaml:"shiftMeta,omitempty" json:"shiftMeta,omitempty"`
	Shifts    []int   `yaml:"shifts,omitempty" json:"shifts,omitempty"`

	Chain       []Slot   `yaml:"chain" json:"chain"`
	StrictOrder bool     `yaml:"strictOrder" json:"strictOrder"`
	Broadcast   Scope    `yaml:"broadcast" json:"broadcast"`
	AssignRoles []string `yaml:"assignRoles,omitempty" json:"assignRoles,omitempty"`

	Totals          bool     `yaml:"totals,omitempty" json:"totals,omitempty"`
	NCR             bool     `yaml:"ncr,omitempty" json:"ncr,omitempty"`
	AdminDelete     bool     `yaml:"adminDelete,omitempty" json:"adminDelete,omitempty"`
	LastValueFields []string `yaml:"lastValueFields,omitempty" json:"lastValueFields,omitempty"`

	Checkpoints []SeedCheckpoint `yaml:"checkpoints,omitempty" json:"-"`
}

func (s *Schema) HasShift() bool { return s.Identity == IdentityShift }

func (s *Schema) Standalone() bool { return s.Identity == IdentityStandalone }

func (s *Schema) ShiftList() []int {
	if len(s.Shifts) > 0 {
		return s.Shifts
	}
	return []int{1, 2, 3}
}

// AllFields returns the row fields followed by the per-shift meta fields.
func (s *Schema) AllFields() []Field {
	out := make([]Field, 0, len(s.Fields)+len(s.ShiftMeta))
	out = append(out, s.Fields...)
	out = append(out, s.ShiftMeta...)
	return out
}

func (s *Schema) Field(key string) (Field, bool) {
	for _, f := range s.AllFields() {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

func (s *Schema) NumericFields() []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.Kind == KindNumber {
			out = append(out, f)
		}
	}
	return out
}

// SlotIndex returns the chain position of role, matched case-insensitively.
func (s *Schema) SlotIndex(role string) int {
	role = strings.TrimSpace(role)
	for i, slot := range s.Chain {
		if strings.EqualFold(slot.Role, role) {
			return i
		}
	}
	return -1
}

func (s *Schema) Slot(role string) (Slot, bool) {
	i := s.SlotIndex(role)
	if i < 0 {
		return Slot{}, false
	}
	return s.Chain[i], true
}

// ReplaceScopeOrDefault is the scope wiped by a destructive replace.
func (s *Schema) ReplaceScopeOrDefault() Scope {
	if s.ReplaceScope == ScopeShift && s.HasShift() {
		return ScopeShift
	}
	return ScopeDay
}

func (s *Schema) validate() error {
	if strings.TrimSpace(s.Type) == "" {
		return fmt.Errorf("form type is required")
	}
	switch s.Identity {
	case IdentityDay, IdentityShift, IdentityStandalone:
	default:
		return fmt.Errorf("%s: unknown identity %q", s.Type, s.Identity)
	}
	switch s.RowKey {
	case RowKeyCheckpoint, RowKeyIndex, RowKeyNone:
	case "":
		s.RowKey = RowKeyNone
	default:
		return fmt.Errorf("%s: unknown rowKey %q", s.Type, s.RowKey)
	}
	switch s.Strategy {
	case StrategyMerge, StrategyReplace:
	default:
		return fmt.Errorf("%s: unknown strategy %q", s.Type, s.Strategy)
	}
	if s.Strategy == StrategyReplace && s.Standalone() {
		return fmt.Errorf("%s: standalone forms cannot use destructive replace", s.Type)
	}
	switch s.EAV {
	case EAVSparse, EAVExplicit:
	default:
		return fmt.Errorf("%s: eav policy must be sparse or explicit, got %q", s.Type, s.EAV)
	}
	switch s.EAVKey {
	case EAVKeyRecord:
	case EAVKeyIdentity:
		if s.RowKey != RowKeyNone || s.Standalone() {
			return fmt.Errorf("%s: identity-keyed custom values need one row per identity", s.Type)
		}
	default:
		return fmt.Errorf("%s: unknown eavKey %q", s.Type, s.EAVKey)
	}
	switch s.Broadcast {
	case "":
		s.Broadcast = ScopeNone
	case ScopeNone, ScopeDay:
	case ScopeShift:
		if !s.HasShift() {
			return fmt.Errorf("%s: shift broadcast needs shift identity", s.Type)
		}
	default:
		return fmt.Errorf("%s: unknown broadcast %q", s.Type, s.Broadcast)
	}
	if len(s.Chain) == 0 {
		return fmt.Errorf("%s: sign-off chain is empty", s.Type)
	}
	seen := map[string]bool{}
	for _, slot := range s.Chain {
		key := strings.ToLower(strings.TrimSpace(slot.Role))
		if key == "" {
			return fmt.Errorf("%s: chain slot without role", s.Type)
		}
		if seen[key] {
			return fmt.Errorf("%s: duplicate chain role %q", s.Type, slot.Role)
		}
		seen[key] = true
	}
	keys := map[string]bool{}
	for _, f := range s.AllFields() {
		if f.Key == "" {
			return fmt.Errorf("%s: field without key", s.Type)
		}
		if keys[f.Key] {
			return fmt.Errorf("%s: duplicate field %q", s.Type, f.Key)
		}
		keys[f.Key] = true
		switch f.Kind {
		case KindNumber, KindText, KindBool:
		default:
			return fmt.Errorf("%s: field %s has unknown kind %q", s.Type, f.Key, f.Kind)
		}
	}
	return nil
}

package rules

// Diff is the structural delta between two rule data payloads. It is
// derived on demand and persisted only as part of its owning candidate
// or change-log entry, never as a standalone row.
type Diff struct {
	// Added are requirements present in the new payload only.
	Added []Requirement `json:"added,omitempty"`

	// Removed are requirements present in the old payload only.
	Removed []Requirement `json:"removed,omitempty"`

	// Modified are requirements present in both with at least one of
	// category, description, or condition differing.
	Modified []RequirementChange `json:"modified,omitempty"`

	// ScalarChanges are field-level changes to the financial, processing,
	// and fee sections.
	ScalarChanges []ScalarChange `json:"scalarChanges,omitempty"`
}

// RequirementChange records which fields of a matched requirement changed.
type RequirementChange struct {
	DocumentType string        `json:"documentType"`
	Changed      []FieldChange `json:"changed"`
}

// FieldChange is one old/new pair for a changed requirement field.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// ScalarChange is one old/new pair for a scalar policy field, qualified
// by its section ("financial", "processing", "fee").
type ScalarChange struct {
	Section string `json:"section"`
	Field   string `json:"field"`
	Old     string `json:"old"`
	New     string `json:"new"`
}

// Empty reports whether the diff carries no changes at all.
func (d *Diff) Empty() bool {
	if d == nil {
		return true
	}
	return len(d.Added) == 0 && len(d.Removed) == 0 &&
		len(d.Modified) == 0 && len(d.ScalarChanges) == 0
}

package types

// DefinitionKind names one of the reference lists used by SDC records.
type DefinitionKind string

// Definition kinds.
const (
	KindSponsor      DefinitionKind = "Sponsor"
	KindCenter       DefinitionKind = "Center"
	KindInvestigator DefinitionKind = "Investigator"
	KindProjectCode  DefinitionKind = "ProjectCode"
	KindWorkDone     DefinitionKind = "WorkDone"
)

// DefinitionKinds lists every kind in display order.
var DefinitionKinds = []DefinitionKind{
	KindSponsor,
	KindCenter,
	KindInvestigator,
	KindProjectCode,
	KindWorkDone,
}

// Definition is a named reference item (a sponsor, a center, ...).
type Definition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

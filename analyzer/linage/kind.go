package linage

type NodeKind string

const (
	DataSourceNode      NodeKind = "Data Source"
	OriginalFieldNode   NodeKind = "Original Field"
	CalculatedFieldNode NodeKind = "Calculated Field"
	// UnresolvedNode represents a formula token that matched no known field
	UnresolvedNode NodeKind = "Unresolved"
)

type EdgeKind string

const (
	Owns       EdgeKind = "OWNS"       // data source -> field
	References EdgeKind = "REFERENCES" // referenced field -> calculated field
)

// Unknown is the sentinel for missing version/platform attributes
const Unknown = "Unknown"

// UnknownSource is the caption used when a data source cannot be joined
const UnknownSource = "Unknown Source"

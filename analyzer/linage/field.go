package linage

// OriginalField is a field defined directly on a data source with no derivation formula
type OriginalField struct {
	FieldID     `yaml:",inline"`
	Caption     string `yaml:"caption,omitempty"`
	DataType    string `yaml:"dataType,omitempty"`    // e.g. string, real, integer, date
	Role        string `yaml:"role,omitempty"`        // dimension or measure
	Type        string `yaml:"type,omitempty"`        // nominal, ordinal, quantitative
	RemoteName  string `yaml:"remoteName,omitempty"`  // Column name in the underlying connection
	Aggregation string `yaml:"aggregation,omitempty"` // Default aggregation
}

// CalculatedField is a field whose value is defined by a formula
type CalculatedField struct {
	FieldID  `yaml:",inline"`
	Caption  string `yaml:"caption,omitempty"`
	Formula  string `yaml:"formula"`
	Class    string `yaml:"class,omitempty"` // calculation class, usually tableau
	DataType string `yaml:"dataType,omitempty"`
	Role     string `yaml:"role,omitempty"`
	Type     string `yaml:"type,omitempty"`
	Alias    string `yaml:"alias,omitempty"`
}

// DisplayName returns the caption, falling back to the field name
func (f *OriginalField) DisplayName() string {
	if f.Caption != "" {
		return f.Caption
	}
	return f.Name
}

// DisplayName returns the caption, falling back to the field name
func (f *CalculatedField) DisplayName() string {
	if f.Caption != "" {
		return f.Caption
	}
	return f.Name
}

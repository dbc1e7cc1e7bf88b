package linage

// Worksheet lists the fields a worksheet visibly uses
type Worksheet struct {
	Name string      `yaml:"name"`
	Uses []*FieldUse `yaml:"uses,omitempty"`
}

// FieldUse is a single field dependency declared by a worksheet
type FieldUse struct {
	FieldID  `yaml:",inline"`
	Caption  string `yaml:"caption,omitempty"`
	DataType string `yaml:"dataType,omitempty"`
	Role     string `yaml:"role,omitempty"`
}

// Fields returns the distinct field identities used by the worksheet, in declaration order
func (w *Worksheet) Fields() []FieldID {
	seen := make(map[FieldID]bool, len(w.Uses))
	var result []FieldID
	for _, use := range w.Uses {
		if seen[use.FieldID] {
			continue
		}
		seen[use.FieldID] = true
		result = append(result, use.FieldID)
	}
	return result
}

// Dashboard groups worksheets placed on a dashboard
type Dashboard struct {
	Name       string   `yaml:"name"`
	Worksheets []string `yaml:"worksheets,omitempty"`
}

// VersionInfo holds the workbook version and platform attributes
type VersionInfo struct {
	Version        string `yaml:"version"`
	SourcePlatform string `yaml:"sourcePlatform"`
	SourceBuild    string `yaml:"sourceBuild"`
}

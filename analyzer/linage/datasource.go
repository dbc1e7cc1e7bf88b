package linage

// DataSource represents a <datasource> definition of the workbook
type DataSource struct {
	ID         string     `yaml:"id"`                   // Stable data source name, e.g. federated.0a1b2c
	Caption    string     `yaml:"caption,omitempty"`    // Display caption
	Version    string     `yaml:"version,omitempty"`    // Data source format version
	Inline     bool       `yaml:"inline,omitempty"`     // Embedded in the workbook
	Connection Connection `yaml:"connection,omitempty"` // Connection/platform metadata
	// ExtractFile is the auxiliary package entry holding the data source extract, if any
	ExtractFile string `yaml:"extractFile,omitempty"`
	// ExtractPresent reports whether ExtractFile was found among the package entries
	ExtractPresent bool `yaml:"extractPresent,omitempty"`
}

// Connection holds connection metadata of a data source
type Connection struct {
	Class    string   `yaml:"class,omitempty"`    // e.g. federated, excel-direct, hyper
	Server   string   `yaml:"server,omitempty"`   // Remote server, if any
	Database string   `yaml:"database,omitempty"` // Database name or file
	Filename string   `yaml:"filename,omitempty"` // Local file the connection reads
	Username string   `yaml:"username,omitempty"`
	Named    []string `yaml:"named,omitempty"` // Classes of nested named connections
}

// DisplayName returns the caption, falling back to the ID
func (d *DataSource) DisplayName() string {
	if d.Caption != "" {
		return d.Caption
	}
	return d.ID
}

// Ref returns the data source node reference
func (d *DataSource) Ref() Ref {
	return MakeDataSourceRef(d.ID)
}

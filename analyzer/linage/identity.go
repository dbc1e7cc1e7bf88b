package linage

import "strings"

// Ref is a unique reference to a graph node (data source, field or unresolved token)
type Ref string

const unresolvedPrefix = "?"

// FieldID identifies a field within its owning data source
type FieldID struct {
	DataSource string `yaml:"dataSource" json:"dataSource"` // Owning data source ID
	Name       string `yaml:"name" json:"name"`             // Field name, without brackets
}

// Ref returns the field node reference
func (f FieldID) Ref() Ref {
	return MakeFieldRef(f.DataSource, f.Name)
}

// String returns the bracketed form, i.e. [ds].[name]
func (f FieldID) String() string {
	return string(f.Ref())
}

// IsZero returns true if the identity is not set
func (f FieldID) IsZero() bool {
	return f.DataSource == "" && f.Name == ""
}

// MakeDataSourceRef creates a reference for a data source
func MakeDataSourceRef(id string) Ref {
	return Ref(Bracket(id))
}

// MakeFieldRef creates a reference for a field scoped to its data source
func MakeFieldRef(dataSource, name string) Ref {
	return Ref(Bracket(dataSource) + "." + Bracket(name))
}

// MakeUnresolvedRef creates a reference for a synthetic unresolved node
func MakeUnresolvedRef(dataSource, token string) Ref {
	return Ref(unresolvedPrefix + Bracket(dataSource) + "." + Bracket(token))
}

// Bracket wraps name in square brackets, doubling any closing bracket
func Bracket(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// Unbracket removes enclosing square brackets and undoubles closing brackets
func Unbracket(name string) string {
	if len(name) >= 2 && name[0] == '[' && name[len(name)-1] == ']' {
		name = name[1 : len(name)-1]
		return strings.ReplaceAll(name, "]]", "]")
	}
	return name
}

// IsUnresolved returns true for synthetic unresolved references
func (r Ref) IsUnresolved() bool {
	return strings.HasPrefix(string(r), unresolvedPrefix)
}

// Identity parses the reference back into its parts.
// Data source refs yield an identity with an empty Name.
func (r Ref) Identity() FieldID {
	text := strings.TrimPrefix(string(r), unresolvedPrefix)
	parts := splitBracketed(text)
	switch len(parts) {
	case 1:
		return FieldID{DataSource: parts[0]}
	case 2:
		return FieldID{DataSource: parts[0], Name: parts[1]}
	}
	return FieldID{}
}

// splitBracketed splits [a].[b] into its unbracketed parts; malformed input yields nil
func splitBracketed(text string) []string {
	var parts []string
	for i := 0; i < len(text); {
		if text[i] != '[' {
			return nil
		}
		var sb strings.Builder
		j := i + 1
		closed := false
		for j < len(text) {
			if text[j] == ']' {
				if j+1 < len(text) && text[j+1] == ']' {
					sb.WriteByte(']')
					j += 2
					continue
				}
				closed = true
				break
			}
			sb.WriteByte(text[j])
			j++
		}
		if !closed {
			return nil
		}
		parts = append(parts, sb.String())
		i = j + 1
		if i < len(text) {
			if text[i] != '.' {
				return nil
			}
			i++
		}
	}
	return parts
}

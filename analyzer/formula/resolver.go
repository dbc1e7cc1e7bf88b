package formula

import (
	"fmt"
	"log/slog"

	"github.com/hovinh/tableau-report-gen/analyzer/linage"
	"github.com/hovinh/tableau-report-gen/config"
)

// Reference is a formula token resolved to a known field
type Reference struct {
	Field linage.FieldID  `yaml:"field"`
	Kind  linage.NodeKind `yaml:"kind"`
	Label string          `yaml:"label,omitempty"`
}

// Unresolved is a formula token that matched no known field
type Unresolved struct {
	DataSource string `yaml:"dataSource" json:"dataSource"` // scope the token was looked up in
	Token      string `yaml:"token" json:"token"`
	Label      string `yaml:"label,omitempty" json:"label,omitempty"`
	Reason     string `yaml:"reason" json:"reason"`
}

// Ref returns the synthetic node reference of the unresolved token
func (u Unresolved) Ref() linage.Ref {
	return linage.MakeUnresolvedRef(u.DataSource, u.Token)
}

// Resolution is the outcome of resolving one formula
type Resolution struct {
	References []Reference                `yaml:"references"`
	Unresolved []Unresolved               `yaml:"unresolved,omitempty"`
	Warnings   []linage.ResolutionWarning `yaml:"warnings,omitempty"`
}

// Resolver maps formula tokens onto field identities using a field index
type Resolver struct {
	index         *linage.Index
	qualifiers    config.QualifierPolicy
	matchCaptions bool
	logger        *slog.Logger
}

// NewResolver creates a resolver over index
func NewResolver(index *linage.Index, options ...Option) *Resolver {
	r := &Resolver{
		index:         index,
		qualifiers:    config.QualifierUnresolved,
		matchCaptions: true,
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Resolve returns the ordered, deduplicated references of a calculated field formula.
// It never fails: a panic while scanning yields an empty resolution with a warning.
func (r *Resolver) Resolve(field *linage.CalculatedField) (result *Resolution) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("formula resolution failed", "field", field.String(), "panic", fmt.Sprint(rec))
			result = &Resolution{Warnings: []linage.ResolutionWarning{{
				Field:  field.FieldID,
				Reason: fmt.Sprintf("resolution failed: %v", rec),
			}}}
		}
	}()
	return r.resolve(field.FieldID, field.Formula)
}

// ResolveFormula resolves formula text as if it were owned by owner
func (r *Resolver) ResolveFormula(owner linage.FieldID, formula string) *Resolution {
	return r.Resolve(&linage.CalculatedField{FieldID: owner, Formula: formula})
}

func (r *Resolver) resolve(owner linage.FieldID, formula string) *Resolution {
	result := &Resolution{}
	seen := make(map[linage.FieldID]bool)
	missing := make(map[string]bool)
	for _, token := range Scan(formula) {
		ref, unresolved := r.resolveToken(owner, token)
		if unresolved != nil {
			key := unresolved.DataSource + "\x00" + unresolved.Token
			if missing[key] {
				continue
			}
			missing[key] = true
			result.Unresolved = append(result.Unresolved, *unresolved)
			result.Warnings = append(result.Warnings, linage.ResolutionWarning{Field: owner, Token: token.Text, Reason: unresolved.Reason})
			r.logger.Debug("unresolved formula reference", "field", owner.String(), "token", token.Text, "reason", unresolved.Reason)
			continue
		}
		if seen[ref.Field] {
			continue
		}
		seen[ref.Field] = true
		result.References = append(result.References, *ref)
	}
	return result
}

func (r *Resolver) resolveToken(owner linage.FieldID, token Token) (*Reference, *Unresolved) {
	dataSource := owner.DataSource
	if token.Qualifier != "" {
		id, ok := r.index.LookupDataSource(token.Qualifier)
		switch {
		case ok:
			dataSource = id
		case r.qualifiers == config.QualifierOwner:
			r.logger.Debug("unknown qualifier, using owning data source", "field", owner.String(), "qualifier", token.Qualifier)
		default:
			return nil, &Unresolved{
				DataSource: token.Qualifier,
				Token:      token.Name,
				Label:      token.Label(),
				Reason:     "unknown data source qualifier " + Bracket(token.Qualifier),
			}
		}
	}
	for _, name := range candidates(token.Name) {
		if id, ok := r.index.LookupField(dataSource, name, r.matchCaptions); ok {
			kind, _ := r.index.Kind(id)
			return &Reference{Field: id, Kind: kind, Label: token.Label()}, nil
		}
	}
	return nil, &Unresolved{
		DataSource: dataSource,
		Token:      StripWrapper(token.Name),
		Label:      token.Label(),
		Reason:     "no field " + Bracket(StripWrapper(token.Name)) + " in data source " + Bracket(dataSource),
	}
}

// candidates lists the names a token may match: as written, then without wrappers
func candidates(name string) []string {
	stripped := StripWrapper(name)
	if stripped == name {
		return []string{name}
	}
	return []string{name, stripped}
}

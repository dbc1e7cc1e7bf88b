// Package formula extracts and resolves bracketed field references of calculated field formulas.
package formula

import "strings"

// Token is a bracketed field reference found in formula text
type Token struct {
	Qualifier string // data source qualifier of [qualifier].[name], if any
	Name      string
	Text      string // raw reference text as written
	Offset    int    // byte offset of Text within the formula
}

// Label returns the edge label for the token: the qualifier, or empty when unqualified
func (t Token) Label() string {
	return t.Qualifier
}

type scanState int

const (
	stateNormal scanState = iota
	stateQuote
	stateBracket
	stateComment
	stateBlockComment
)

// Scan returns bracket tokens in order of appearance.
// String literals, // line comments and /* */ block comments are skipped so brackets inside them are not references.
// Empty brackets and an unterminated bracket at the end of the text are ignored; a dangling qualifier is kept as a plain token.
func Scan(formula string) []Token {
	var (
		tokens    []Token
		state     = stateNormal
		quote     byte
		name      strings.Builder
		start     int
		qualifier *Token
	)
	for i := 0; i < len(formula); i++ {
		c := formula[i]
		switch state {
		case stateNormal:
			switch {
			case c == '/' && i+1 < len(formula) && formula[i+1] == '/':
				state = stateComment
				i++
				qualifier = nil
			case c == '/' && i+1 < len(formula) && formula[i+1] == '*':
				state = stateBlockComment
				i++
				qualifier = nil
			case c == '\'' || c == '"':
				state = stateQuote
				quote = c
				qualifier = nil
			case c == '[':
				state = stateBracket
				name.Reset()
				if qualifier == nil {
					start = i
				}
			default:
				qualifier = nil
			}
		case stateQuote:
			if c == quote {
				if i+1 < len(formula) && formula[i+1] == quote {
					i++
					continue
				}
				state = stateNormal
			}
		case stateComment:
			if c == '\n' || c == '\r' {
				state = stateNormal
			}
		case stateBlockComment:
			if c == '*' && i+1 < len(formula) && formula[i+1] == '/' {
				state = stateNormal
				i++
			}
		case stateBracket:
			if c != ']' {
				name.WriteByte(c)
				continue
			}
			if i+1 < len(formula) && formula[i+1] == ']' {
				name.WriteByte(']')
				i++
				continue
			}
			state = stateNormal
			if strings.TrimSpace(name.String()) == "" {
				qualifier = nil
				continue
			}
			token := Token{Name: name.String(), Offset: start}
			if qualifier != nil {
				token.Qualifier = qualifier.Name
				qualifier = nil
			}
			if token.Qualifier == "" && i+2 < len(formula) && formula[i+1] == '.' && formula[i+2] == '[' {
				qualifier = &token
				i++
				continue
			}
			token.Text = formula[start : i+1]
			tokens = append(tokens, token)
		}
	}
	if qualifier != nil {
		qualifier.Text = formula[start : start+len(Bracket(qualifier.Name))]
		tokens = append(tokens, *qualifier)
	}
	return tokens
}

// Bracket wraps a name as it is written in formulas
func Bracket(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// Package descriptor reads module declarations (module-info.java) far
// enough to learn a module's name and what it requires.
package descriptor

import (
	"fmt"
	"os"

	"github.com/viant/parsly"
)

// Requirement is one "requires" directive.
type Requirement struct {
	Name       string
	Transitive bool
	Static     bool
}

// Descriptor is the parsed subset of a module declaration.
type Descriptor struct {
	Name     string
	Open     bool
	Requires []Requirement
}

// RequiredNames returns the required module names in declaration order.
func (d *Descriptor) RequiredNames() []string {
	names := make([]string, len(d.Requires))
	for i, r := range d.Requires {
		names[i] = r.Name
	}
	return names
}

// ParseFile reads and parses the declaration at path.
func ParseFile(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Parse extracts the module name, openness and requires directives.
func Parse(source []byte) (*Descriptor, error) {
	// A trailing line comment needs its terminator.
	input := append(append([]byte(nil), source...), '\n')
	cursor := parsly.NewCursor("", input, 0)

	d := &Descriptor{}
	for cursor.Pos < cursor.InputSize {
		matched := cursor.MatchAfterOptional(whitespaceMatcher, tokens...)
		switch matched.Code {
		case parsly.EOF:
			return nil, fmt.Errorf("no module declaration found")
		case parsly.Invalid:
			return nil, cursor.NewError(identifierMatcher)
		case identifierToken:
			switch matched.Text(cursor) {
			case "import":
				if err := skipDirective(cursor); err != nil {
					return nil, err
				}
			case "open":
				d.Open = true
			case "module":
				if err := parseModule(cursor, d); err != nil {
					return nil, err
				}
				return d, nil
			}
		}
	}
	return nil, fmt.Errorf("no module declaration found")
}

func parseModule(cursor *parsly.Cursor, d *Descriptor) error {
	name := nextSignificant(cursor)
	if name.Code != identifierToken {
		return fmt.Errorf("expected module name at offset %d", name.Offset)
	}
	d.Name = name.Text(cursor)

	if brace := nextSignificant(cursor); brace.Code != openBraceToken {
		return fmt.Errorf("expected '{' after module %s", d.Name)
	}

	for {
		matched := nextSignificant(cursor)
		switch matched.Code {
		case closeBraceToken:
			return nil
		case parsly.EOF, parsly.Invalid:
			return fmt.Errorf("unterminated declaration of module %s", d.Name)
		case identifierToken:
			if matched.Text(cursor) != "requires" {
				if err := skipDirective(cursor); err != nil {
					return err
				}
				continue
			}
			words, err := wordsUntilSemicolon(cursor)
			if err != nil {
				return err
			}
			if len(words) == 0 {
				return fmt.Errorf("module %s: requires directive without a module name", d.Name)
			}
			// The last word is the module; anything before it is a modifier.
			req := Requirement{Name: words[len(words)-1]}
			for _, modifier := range words[:len(words)-1] {
				switch modifier {
				case "transitive":
					req.Transitive = true
				case "static":
					req.Static = true
				default:
					return fmt.Errorf("module %s: unknown requires modifier %q", d.Name, modifier)
				}
			}
			d.Requires = append(d.Requires, req)
		}
	}
}

// nextSignificant returns the next token that is not a comment.
func nextSignificant(cursor *parsly.Cursor) *parsly.TokenMatch {
	for {
		matched := cursor.MatchAfterOptional(whitespaceMatcher, tokens...)
		switch matched.Code {
		case lineCommentToken, blockCommentToken:
			continue
		}
		return matched
	}
}

func wordsUntilSemicolon(cursor *parsly.Cursor) ([]string, error) {
	var words []string
	for {
		matched := nextSignificant(cursor)
		switch matched.Code {
		case semicolonToken:
			return words, nil
		case identifierToken:
			words = append(words, matched.Text(cursor))
		case parsly.EOF, parsly.Invalid, closeBraceToken:
			return nil, fmt.Errorf("missing ';' at offset %d", matched.Offset)
		}
	}
}

func skipDirective(cursor *parsly.Cursor) error {
	_, err := wordsUntilSemicolon(cursor)
	return err
}

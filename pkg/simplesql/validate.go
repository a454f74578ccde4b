package simplesql

import (
	"fmt"
	"regexp"
	"strings"
)

const maxIdentifierLength = 64

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// ValidIdentifier reports an error wrapping ErrInvalidIdentifier unless name
// is a plain identifier (letters, digits, '_' and '$', not starting with a
// digit, at most 64 characters).
func ValidIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidIdentifier)
	}
	if len(name) > maxIdentifierLength {
		return fmt.Errorf("%w: %q longer than %d characters", ErrInvalidIdentifier, name, maxIdentifierLength)
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return nil
}

// ParseFields turns a parenthesised column list such as "(name, age)" into
// its column names. Surrounding quotes or backticks on a name are dropped.
func ParseFields(clause string) ([]string, error) {
	s := strings.TrimSpace(clause)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%w: empty fields clause", ErrInvalidIdentifier)
	}

	parts := strings.Split(s, ",")
	columns := make([]string, 0, len(parts))
	for _, p := range parts {
		name := strings.Trim(strings.TrimSpace(p), "`\"")
		if err := ValidIdentifier(name); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	return columns, nil
}

// lexer describes how a dialect delimits string literals and quoted
// identifiers. Fragment checks must skip exactly what the server treats as
// quoted: a literal that ends earlier on the server than in the scan would
// hide a terminator.
type lexer struct {
	// quotes open a literal or identifier closed by the same byte. A doubled
	// quote stands for itself.
	quotes string
	// backslash escapes the next byte inside ' and " quotes (MySQL).
	backslash bool
	// escapeStrings enables backslash escapes in E'...' literals only.
	escapeStrings bool
	// dollarQuotes enables $$...$$ and $tag$...$tag$ literals.
	dollarQuotes bool
	// brackets enables [identifier] quoting.
	brackets bool
	// qQuotes enables q'[...]' alternative quoting.
	qQuotes bool
	// comments lists comment openers besides -- and /*.
	comments []string
}

var (
	mysqlLexer    = lexer{quotes: "'\"`", backslash: true, comments: []string{"#"}}
	mysqlNBELexer = lexer{quotes: "'\"`", comments: []string{"#"}}
	postgresLexer = lexer{quotes: `'"`, escapeStrings: true, dollarQuotes: true}
	sqliteLexer   = lexer{quotes: "'\"`", brackets: true}
	oracleLexer   = lexer{quotes: `'"`, qQuotes: true}
)

var dollarTag = regexp.MustCompile(`^\$([A-Za-z_][A-Za-z0-9_]*)?\$`)

var qDelimiters = map[byte]byte{'[': ']', '(': ')', '{': '}', '<': '>'}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// wordStart reports whether s[i] starts a word, i.e. is not preceded by an
// identifier byte.
func wordStart(s string, i int) bool {
	return i == 0 || !isIdentByte(s[i-1])
}

// scan walks s and calls check on every byte offset outside a quoted
// literal or quoted identifier. An unterminated quote is an error.
func (l lexer) scan(s string, check func(rest string) error) error {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case strings.IndexByte(l.quotes, c) >= 0:
			escapes := l.backslash && c != '`'
			if c == '\'' && l.escapeStrings && i > 0 && (s[i-1] == 'E' || s[i-1] == 'e') && wordStart(s, i-1) {
				escapes = true
			}
			end, ok := closeQuote(s, i, c, escapes)
			if !ok {
				return fmt.Errorf("unterminated %c quote", c)
			}
			i = end
			continue

		case l.dollarQuotes && c == '$' && wordStart(s, i):
			if tag := dollarTag.FindString(s[i:]); tag != "" {
				end := strings.Index(s[i+len(tag):], tag)
				if end < 0 {
					return fmt.Errorf("unterminated %s quote", tag)
				}
				i += len(tag) + end + len(tag) - 1
				continue
			}

		case l.brackets && c == '[':
			end := strings.IndexByte(s[i+1:], ']')
			if end < 0 {
				return fmt.Errorf("unterminated [ quote")
			}
			i += end + 1
			continue

		case l.qQuotes && (c == 'q' || c == 'Q') && i+2 < len(s) && s[i+1] == '\'' && qStart(s, i):
			open := s[i+2]
			if open != ' ' && open != '\t' && open != '\n' && open != '\r' {
				closing := open
				if cl, ok := qDelimiters[open]; ok {
					closing = cl
				}
				end := strings.Index(s[i+3:], string([]byte{closing, '\''}))
				if end < 0 {
					return fmt.Errorf("unterminated q'%c quote", open)
				}
				i += 3 + end + 1
				continue
			}
		}
		if err := check(s[i:]); err != nil {
			return err
		}
	}
	return nil
}

// qStart reports whether the q at s[i] opens q'..' or nq'..'.
func qStart(s string, i int) bool {
	if wordStart(s, i) {
		return true
	}
	return (s[i-1] == 'n' || s[i-1] == 'N') && wordStart(s, i-1)
}

// closeQuote returns the index of the quote closing the one at s[start].
func closeQuote(s string, start int, quote byte, escapes bool) (int, bool) {
	for j := start + 1; j < len(s); j++ {
		switch {
		case escapes && s[j] == '\\':
			j++
		case s[j] == quote && j+1 < len(s) && s[j+1] == quote:
			j++
		case s[j] == quote:
			return j, true
		}
	}
	return 0, false
}

// checkFragment rejects statement terminators and comment openers outside
// quotes.
func (l lexer) checkFragment(s string) error {
	tokens := append([]string{";", "--", "/*"}, l.comments...)
	return l.scan(s, func(rest string) error {
		for _, tok := range tokens {
			if strings.HasPrefix(rest, tok) {
				return fmt.Errorf("%q not allowed", tok)
			}
		}
		return nil
	})
}

func validateField(d Dialect, field string) error {
	if strings.TrimSpace(field) == "" {
		return fmt.Errorf("%w: empty definition", ErrInvalidField)
	}
	if err := d.ValidateFragment(field); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidField, field, err)
	}
	return nil
}

// readOnlyKinds are the statement kinds ValidateReadOnly accepts.
var readOnlyKinds = map[string]bool{"SELECT": true, "SHOW": true}

// validateReadOnly checks that query is one SELECT or SHOW statement with
// nothing stacked behind it.
func validateReadOnly(d Dialect, query string) error {
	if err := d.ValidateFragment(query); err != nil {
		return fmt.Errorf("%w: %v", ErrNotReadOnly, err)
	}
	if kind := StatementKind(query); !readOnlyKinds[kind] {
		return fmt.Errorf("%w: %s", ErrNotReadOnly, kind)
	}
	return nil
}

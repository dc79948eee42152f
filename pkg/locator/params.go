package locator

import (
	"strings"

	"github.com/devicelab-dev/locator-runner/pkg/core"
)

const (
	tokenDelim = "---"
	tokenSep   = ":-:"

	// SavedNamespace selects the saved-value table instead of a property file.
	// Matched case-insensitively.
	SavedNamespace = "SavedValue"
)

// PropertySource reads a key from a named property file.
type PropertySource interface {
	Value(name, key string) (string, error)
}

// SavedSource reads a value the scenario saved earlier.
type SavedSource interface {
	Get(key string) (string, error)
}

// Token is one ---namespace:-:key--- placeholder found in a locator.
type Token struct {
	Namespace string
	Key       string
	Start     int // Offset of the opening delimiter
	End       int // Offset just past the closing delimiter
}

// IsSaved returns true when the token reads from the saved-value table.
func (t Token) IsSaved() bool {
	return strings.EqualFold(t.Namespace, SavedNamespace)
}

// Tokens scans raw for parameter tokens. Delimited pieces without ":-:"
// are ordinary text. A piece with ":-:" that is unterminated, has an empty
// side or more than one separator is ErrUnresolvedParameter.
func Tokens(raw string) ([]Token, error) {
	var tokens []Token
	i := 0
	for {
		open := strings.Index(raw[i:], tokenDelim)
		if open < 0 {
			return tokens, nil
		}
		open += i
		body := raw[open+len(tokenDelim):]

		end := strings.Index(body, tokenDelim)
		if end < 0 {
			if strings.Contains(body, tokenSep) {
				return nil, core.ErrUnresolvedParameter.WithMessagef("unterminated parameter in %q", raw)
			}
			return tokens, nil
		}

		inner := body[:end]
		if !strings.Contains(inner, tokenSep) {
			// Not a parameter; the closing delimiter may open the next one
			i = open + len(tokenDelim)
			continue
		}

		parts := strings.Split(inner, tokenSep)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, core.ErrUnresolvedParameter.WithMessagef("malformed parameter %q in %q", inner, raw)
		}
		closeEnd := open + len(tokenDelim) + end + len(tokenDelim)
		tokens = append(tokens, Token{Namespace: parts[0], Key: parts[1], Start: open, End: closeEnd})
		i = closeEnd
	}
}

// Resolver substitutes parameter tokens from property files and saved values.
type Resolver struct {
	Properties PropertySource
	Saved      SavedSource
}

// NewResolver creates a resolver over the two value backends.
func NewResolver(props PropertySource, saved SavedSource) *Resolver {
	return &Resolver{Properties: props, Saved: saved}
}

// Resolve replaces every token in raw with its value. Strings without a
// delimiter are returned unchanged. Substituted values are not rescanned.
// The first token that cannot be resolved fails the whole call.
func (r *Resolver) Resolve(raw string) (string, error) {
	if !strings.Contains(raw, tokenDelim) {
		return raw, nil
	}

	tokens, err := Tokens(raw)
	if err != nil {
		return "", err
	}
	if len(tokens) == 0 {
		return raw, nil
	}

	var b strings.Builder
	last := 0
	for _, tok := range tokens {
		v, err := r.lookup(tok)
		if err != nil {
			return "", err
		}
		b.WriteString(raw[last:tok.Start])
		b.WriteString(v)
		last = tok.End
	}
	b.WriteString(raw[last:])
	return b.String(), nil
}

func (r *Resolver) lookup(tok Token) (string, error) {
	if tok.IsSaved() {
		if r.Saved == nil {
			return "", core.ErrUnresolvedParameter.WithMessagef("no saved values for %q", tok.Key)
		}
		v, err := r.Saved.Get(tok.Key)
		if err != nil {
			return "", core.ErrUnresolvedParameter.WithMessagef("saved value %q not found", tok.Key).WithCause(err)
		}
		return v, nil
	}

	if r.Properties == nil {
		return "", core.ErrUnresolvedParameter.WithMessagef("no property files for %s:-:%s", tok.Namespace, tok.Key)
	}
	v, err := r.Properties.Value(tok.Namespace, tok.Key)
	if err != nil {
		return "", core.ErrUnresolvedParameter.WithMessagef("property %s:-:%s not resolved", tok.Namespace, tok.Key).WithCause(err)
	}
	return v, nil
}

// ResolveDescriptor substitutes the descriptor value and unwraps NATIVE_BY.
func (r *Resolver) ResolveDescriptor(d Descriptor) (Descriptor, error) {
	if !d.HasParameters() {
		return d.Native()
	}
	v, err := r.Resolve(d.Value)
	if err != nil {
		return Descriptor{}, err
	}
	return d.WithValue(v).Native()
}

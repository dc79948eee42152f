package locator

import (
	"fmt"
	"strings"

	"github.com/devicelab-dev/locator-runner/pkg/core"
	"gopkg.in/yaml.v3"
)

// Descriptor is a parsed locator: what to find and how.
// Pure data structure - the dispatch router decides how to use it.
type Descriptor struct {
	Strategy Strategy
	Value    string        // Unresolved value, may contain ---namespace:-:key--- tokens
	Platform core.Platform // Optional platform override; empty means the session platform
}

// byPrefix starts Selenium's By.toString() form, e.g. "By.xpath: //a".
const byPrefix = "By."

// Parse parses "strategy:value" (split on the first colon) or a Selenium
// "By.<kind>: <value>" string.
func Parse(raw string) (Descriptor, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Descriptor{}, core.ErrInvalidLocator.WithMessage("empty locator")
	}

	if strings.HasPrefix(trimmed, byPrefix) {
		return Descriptor{Strategy: StrategyNativeBy, Value: trimmed}, nil
	}

	idx := strings.Index(trimmed, ":")
	if idx <= 0 {
		return Descriptor{}, core.ErrInvalidLocator.WithMessagef("locator %q has no strategy prefix", raw)
	}

	strategy, err := ParseStrategy(trimmed[:idx])
	if err != nil {
		return Descriptor{}, err
	}
	value := trimmed[idx+1:]
	if value == "" {
		return Descriptor{}, core.ErrInvalidLocator.WithMessagef("locator %q has an empty value", raw)
	}
	if strategy == StrategyNativeBy && !strings.HasPrefix(value, byPrefix) {
		value = byPrefix + value
	}
	return Descriptor{Strategy: strategy, Value: value}, nil
}

// MustParse is like Parse but panics on error. For tests and static tables.
func MustParse(raw string) Descriptor {
	d, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return d
}

// WithPlatform returns a copy carrying a platform override.
func (d Descriptor) WithPlatform(p core.Platform) Descriptor {
	d.Platform = p
	return d
}

// WithValue returns a copy with a replaced value.
func (d Descriptor) WithValue(v string) Descriptor {
	d.Value = v
	return d
}

// Native unwraps a NATIVE_BY descriptor into the strategy it names.
// Other descriptors are returned unchanged.
func (d Descriptor) Native() (Descriptor, error) {
	if d.Strategy != StrategyNativeBy {
		return d, nil
	}
	rest := strings.TrimPrefix(d.Value, byPrefix)
	idx := strings.Index(rest, ":")
	if idx <= 0 {
		return Descriptor{}, core.ErrInvalidLocator.WithMessagef("malformed By locator %q", d.Value)
	}
	kind := rest[:idx]
	value := strings.TrimSpace(rest[idx+1:])
	if value == "" {
		return Descriptor{}, core.ErrInvalidLocator.WithMessagef("By locator %q has an empty value", d.Value)
	}

	var s Strategy
	switch strings.ToLower(kind) {
	case "xpath":
		s = StrategyXPath
	case "id":
		s = StrategyID
	case "name":
		s = StrategyName
	case "classname":
		s = StrategyClassName
	case "cssselector":
		s = StrategyCSS
	case "linktext":
		s = StrategyLinkText
	case "partiallinktext":
		s = StrategyPartialLinkText
	case "tagname":
		s = StrategyTagName
	case "accessibilityid":
		s = StrategyAccessibilityID
	default:
		return Descriptor{}, core.ErrUnsupportedStrategy.WithMessagef("unknown By kind %q", kind)
	}
	return Descriptor{Strategy: s, Value: value, Platform: d.Platform}, nil
}

// HasParameters reports whether the value contains a token delimiter.
func (d Descriptor) HasParameters() bool {
	return strings.Contains(d.Value, tokenDelim)
}

// String returns the locator in "token:value" form. Parse(d.String()) == d
// apart from the platform override.
func (d Descriptor) String() string {
	if d.Strategy == StrategyNativeBy {
		return d.Value
	}
	return d.Strategy.Token() + ":" + d.Value
}

// Describe returns a human-readable description including the platform override.
func (d Descriptor) Describe() string {
	if d.Platform != "" {
		return fmt.Sprintf("%s [%s]", d.String(), d.Platform)
	}
	return d.String()
}

// descriptorRaw is used for YAML parsing of the mapping form.
type descriptorRaw struct {
	Strategy string `yaml:"strategy"`
	Value    string `yaml:"value"`
	Platform string `yaml:"platform"`
}

// UnmarshalYAML allows Descriptor to be unmarshaled from "strategy:value"
// or from a {strategy, value, platform} mapping.
func (d *Descriptor) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		parsed, err := Parse(node.Value)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}

	var raw descriptorRaw
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.Value == "" {
		return core.ErrInvalidLocator.WithMessage("locator mapping has no value")
	}

	strategy, err := ParseStrategy(raw.Strategy)
	if err != nil {
		return err
	}
	d.Strategy = strategy
	d.Value = raw.Value
	d.Platform = ""
	if raw.Platform != "" {
		p, err := core.ParsePlatform(raw.Platform)
		if err != nil {
			return err
		}
		d.Platform = p
	}
	return nil
}

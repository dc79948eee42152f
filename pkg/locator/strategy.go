// Package locator handles parsing and parameter substitution of symbolic
// locators such as "xpath://input[@id='---creds:-:login_id---']".
package locator

import (
	"strings"

	"github.com/devicelab-dev/locator-runner/pkg/core"
)

// Strategy is the lookup mechanism of a locator. The set is closed:
// ParseStrategy rejects anything not listed here.
type Strategy int

const (
	StrategyUnknown Strategy = iota

	// Native strategies, valid on every platform
	StrategyXPath
	StrategyID
	StrategyName
	StrategyClassName
	StrategyCSS
	StrategyLinkText
	StrategyPartialLinkText
	StrategyTagName

	// Mobile strategies, valid on android and ios only
	StrategyAccessibilityID
	StrategyViewTag      // android
	StrategyUIAutomator  // android
	StrategyIOSPredicate // ios
	StrategyIOSClassChain
	StrategyImage

	// Reactive framework strategies, valid on hybrid pages only
	StrategyModel
	StrategyBinding
	StrategyExactBinding
	StrategyButtonText
	StrategyPartialButtonText
	StrategyRepeater
	StrategyExactRepeater
	StrategyOptions

	// StrategyNativeBy wraps a Selenium "By.<kind>: <value>" string
	StrategyNativeBy
)

// Family groups strategies by the dispatch layer that can serve them.
type Family int

const (
	FamilyNone     Family = iota
	FamilyNative          // W3C lookups, any platform
	FamilyMobile          // Appium lookups
	FamilyReactive        // Client-side finder scripts
	FamilyWrapper         // Unwrapped into another strategy before dispatch
)

func (f Family) String() string {
	switch f {
	case FamilyNative:
		return "native"
	case FamilyMobile:
		return "mobile"
	case FamilyReactive:
		return "reactive"
	case FamilyWrapper:
		return "wrapper"
	default:
		return "none"
	}
}

type strategyInfo struct {
	name   string
	token  string
	family Family
}

var strategies = map[Strategy]strategyInfo{
	StrategyXPath:             {"XPATH", "xpath", FamilyNative},
	StrategyID:                {"ID", "id", FamilyNative},
	StrategyName:              {"NAME", "name", FamilyNative},
	StrategyClassName:         {"CLASS_NAME", "class_name", FamilyNative},
	StrategyCSS:               {"CSS", "css", FamilyNative},
	StrategyLinkText:          {"LINK_TEXT", "link_text", FamilyNative},
	StrategyPartialLinkText:   {"PARTIAL_LINK_TEXT", "partial_link_text", FamilyNative},
	StrategyTagName:           {"TAG_NAME", "tag_name", FamilyNative},
	StrategyAccessibilityID:   {"ACCESSIBILITY_ID", "accessibility_id", FamilyMobile},
	StrategyViewTag:           {"VIEW_TAG", "view_tag", FamilyMobile},
	StrategyUIAutomator:       {"UIAUTOMATOR", "uiautomator", FamilyMobile},
	StrategyIOSPredicate:      {"IOS_PREDICATE", "ios_predicate", FamilyMobile},
	StrategyIOSClassChain:     {"IOS_CLASS_CHAIN", "ios_class_chain", FamilyMobile},
	StrategyImage:             {"IMAGE", "image", FamilyMobile},
	StrategyModel:             {"MODEL", "model", FamilyReactive},
	StrategyBinding:           {"BINDING", "binding", FamilyReactive},
	StrategyExactBinding:      {"EXACT_BINDING", "exact_binding", FamilyReactive},
	StrategyButtonText:        {"BUTTON_TEXT", "button_text", FamilyReactive},
	StrategyPartialButtonText: {"PARTIAL_BUTTON_TEXT", "partial_button_text", FamilyReactive},
	StrategyRepeater:          {"REPEATER", "repeater", FamilyReactive},
	StrategyExactRepeater:     {"EXACT_REPEATER", "exact_repeater", FamilyReactive},
	StrategyOptions:           {"OPTIONS", "options", FamilyReactive},
	StrategyNativeBy:          {"NATIVE_BY", "native_by", FamilyWrapper},
}

// aliases maps normalized tokens (upper case, separators removed) to strategies.
var aliases = map[string]Strategy{
	"CSSSELECTOR":        StrategyCSS,
	"ACCESSIBILITY":      StrategyAccessibilityID,
	"ANDROIDUIAUTOMATOR": StrategyUIAutomator,
	"ANDROIDVIEWTAG":     StrategyViewTag,
	"PREDICATE":          StrategyIOSPredicate,
	"IOSPREDICATESTRING": StrategyIOSPredicate,
	"CLASSCHAIN":         StrategyIOSClassChain,
	"BY":                 StrategyNativeBy,
}

func init() {
	for s, info := range strategies {
		aliases[normalize(info.name)] = s
	}
}

func normalize(token string) string {
	r := strings.NewReplacer("_", "", " ", "", "-", "")
	return r.Replace(strings.ToUpper(strings.TrimSpace(token)))
}

// ParseStrategy parses a strategy token such as "xpath", "className",
// "class name" or "ACCESSIBILITY_ID". Matching is case-insensitive and
// ignores separators.
func ParseStrategy(token string) (Strategy, error) {
	if s, ok := aliases[normalize(token)]; ok {
		return s, nil
	}
	return StrategyUnknown, core.ErrUnsupportedStrategy.WithMessagef("unknown locator strategy %q", token)
}

// Strategies returns every known strategy in declaration order.
func Strategies() []Strategy {
	out := make([]Strategy, 0, len(strategies))
	for s := StrategyXPath; s <= StrategyNativeBy; s++ {
		out = append(out, s)
	}
	return out
}

// String returns the canonical upper-case name, e.g. EXACT_BINDING.
func (s Strategy) String() string {
	if info, ok := strategies[s]; ok {
		return info.name
	}
	return "UNKNOWN"
}

// Token returns the lower-case form used in locator strings, e.g. exact_binding.
func (s Strategy) Token() string {
	if info, ok := strategies[s]; ok {
		return info.token
	}
	return "unknown"
}

// Family returns the dispatch family of the strategy.
func (s Strategy) Family() Family {
	return strategies[s].family
}

// IsReactive returns true for strategies served by finder scripts
func (s Strategy) IsReactive() bool {
	return s.Family() == FamilyReactive
}

// IsMobile returns true for strategies only Appium sessions understand
func (s Strategy) IsMobile() bool {
	return s.Family() == FamilyMobile
}

// Package dispatch routes a resolved locator to the lookup mechanism of the
// active platform and returns element handles.
package dispatch

import (
	"fmt"

	"github.com/devicelab-dev/locator-runner/pkg/core"
	"github.com/devicelab-dev/locator-runner/pkg/locator"
)

// Lookup is a planned element lookup: either a W3C "using"/value pair or a
// finder script with its arguments.
type Lookup struct {
	Platform core.Platform
	Strategy locator.Strategy
	Using    string        // W3C strategy; empty for script lookups
	Value    string        // Lookup value (for IMAGE, the image file path)
	Script   string        // Finder script for reactive strategies
	Args     []interface{} // Script arguments
}

// IsScript returns true when the lookup runs a finder script.
func (l Lookup) IsScript() bool {
	return l.Script != ""
}

// String describes the lookup for logs and the resolve command.
func (l Lookup) String() string {
	if l.IsScript() {
		return fmt.Sprintf("%s script(%q) on %s", l.Strategy, l.Value, l.Platform)
	}
	return fmt.Sprintf("%s %q on %s", l.Using, l.Value, l.Platform)
}

// Options tune how lookups are planned.
type Options struct {
	RootSelector    string // Scope of reactive finder scripts
	WaitForRequests bool   // Wait for pending framework requests before reactive lookups
}

type handler func(d locator.Descriptor, opts Options) Lookup

func using(w3c string) handler {
	return func(d locator.Descriptor, _ Options) Lookup {
		return Lookup{Using: w3c, Value: d.Value}
	}
}

func script(src string, flag bool) handler {
	return func(d locator.Descriptor, opts Options) Lookup {
		return Lookup{Value: d.Value, Script: src, Args: []interface{}{d.Value, flag, opts.RootSelector}}
	}
}

type table map[locator.Strategy]handler

// tables holds one dispatch table per platform, built once at init.
var tables map[core.Platform]table

func init() {
	native := table{
		locator.StrategyXPath:           using(core.UsingXPath),
		locator.StrategyID:              using(core.UsingID),
		locator.StrategyName:            using(core.UsingName),
		locator.StrategyClassName:       using(core.UsingClassName),
		locator.StrategyCSS:             using(core.UsingCSS),
		locator.StrategyLinkText:        using(core.UsingLinkText),
		locator.StrategyPartialLinkText: using(core.UsingPartialLinkText),
		locator.StrategyTagName:         using(core.UsingTagName),
	}
	reactive := table{
		locator.StrategyModel:             script(findByModelScript, false),
		locator.StrategyBinding:           script(findBindingsScript, false),
		locator.StrategyExactBinding:      script(findBindingsScript, true),
		locator.StrategyButtonText:        script(findByButtonTextScript, false),
		locator.StrategyPartialButtonText: script(findByButtonTextScript, true),
		locator.StrategyRepeater:          script(findRepeaterRowsScript, false),
		locator.StrategyExactRepeater:     script(findRepeaterRowsScript, true),
		locator.StrategyOptions:           script(findByOptionsScript, false),
	}
	mobile := table{
		locator.StrategyAccessibilityID: using(core.UsingAccessibilityID),
		locator.StrategyImage:           using(core.UsingImage),
	}
	android := table{
		locator.StrategyViewTag:     using(core.UsingAndroidViewTag),
		locator.StrategyUIAutomator: using(core.UsingAndroidUIAutomator),
	}
	ios := table{
		locator.StrategyIOSPredicate:  using(core.UsingIOSPredicate),
		locator.StrategyIOSClassChain: using(core.UsingIOSClassChain),
	}

	tables = map[core.Platform]table{
		core.PlatformWeb:     merge(native),
		core.PlatformHybrid:  merge(native, reactive),
		core.PlatformAndroid: merge(native, mobile, android),
		core.PlatformIOS:     merge(native, mobile, ios),
	}
}

func merge(parts ...table) table {
	out := make(table)
	for _, p := range parts {
		for s, h := range p {
			out[s] = h
		}
	}
	return out
}

// EffectivePlatform picks the dispatch table for a descriptor on a session.
// A web hint on a hybrid session narrows to the web table; a hybrid hint on a
// web session marks the page as reactive. Any other mismatch is
// ErrUnsupportedStrategy.
func EffectivePlatform(session, hint core.Platform) (core.Platform, error) {
	switch {
	case hint == "" || hint == session:
		return session, nil
	case session == core.PlatformHybrid && hint == core.PlatformWeb:
		return core.PlatformWeb, nil
	case session == core.PlatformWeb && hint == core.PlatformHybrid:
		return core.PlatformHybrid, nil
	}
	return "", core.ErrUnsupportedStrategy.WithMessagef("locator targets %s but the active platform is %s", hint, session)
}

// Plan maps a descriptor onto the dispatch table of platform. It performs
// no I/O. NATIVE_BY descriptors are unwrapped first.
func Plan(platform core.Platform, d locator.Descriptor, opts Options) (Lookup, error) {
	d, err := d.Native()
	if err != nil {
		return Lookup{}, err
	}

	effective, err := EffectivePlatform(platform, d.Platform)
	if err != nil {
		return Lookup{}, err
	}

	t, ok := tables[effective]
	if !ok {
		return Lookup{}, core.ErrUnsupportedStrategy.WithMessagef("unknown platform %q", effective)
	}
	h, ok := t[d.Strategy]
	if !ok {
		return Lookup{}, core.ErrUnsupportedStrategy.WithMessagef("%s locators are not supported on %s", d.Strategy, effective).
			WithDetails(map[string]interface{}{core.DetailLocator: d.String(), core.DetailPlatform: string(effective)})
	}

	l := h(d, opts)
	l.Platform = effective
	l.Strategy = d.Strategy
	return l, nil
}

// Supported lists the strategies a platform can dispatch, in declaration order.
func Supported(platform core.Platform) []locator.Strategy {
	var out []locator.Strategy
	for _, s := range locator.Strategies() {
		if _, ok := tables[platform][s]; ok {
			out = append(out, s)
		}
	}
	return out
}

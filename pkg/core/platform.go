package core

import (
	"fmt"
	"strings"
)

// Platform identifies the automation surface a session drives.
type Platform string

const (
	PlatformWeb     Platform = "web"     // Desktop or mobile browser
	PlatformHybrid  Platform = "hybrid"  // Browser page driven by a reactive framework
	PlatformAndroid Platform = "android" // Native Android app
	PlatformIOS     Platform = "ios"     // Native iOS app
)

// Platforms lists every supported platform
var Platforms = []Platform{PlatformWeb, PlatformHybrid, PlatformAndroid, PlatformIOS}

// ParsePlatform parses a platform name (case-insensitive).
// "angular" and "browser" are accepted aliases.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "web", "browser":
		return PlatformWeb, nil
	case "hybrid", "angular":
		return PlatformHybrid, nil
	case "android":
		return PlatformAndroid, nil
	case "ios":
		return PlatformIOS, nil
	}
	return "", ErrInvalidConfig.WithMessage(fmt.Sprintf("unknown platform %q", s))
}

// IsMobile returns true for android and ios
func (p Platform) IsMobile() bool {
	return p == PlatformAndroid || p == PlatformIOS
}

// IsWeb returns true for web and hybrid
func (p Platform) IsWeb() bool {
	return p == PlatformWeb || p == PlatformHybrid
}

func (p Platform) String() string {
	return string(p)
}

package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/devicelab-dev/locator-runner/pkg/core"
	"github.com/devicelab-dev/locator-runner/pkg/driver/mock"
	"github.com/devicelab-dev/locator-runner/pkg/locator"
	"github.com/devicelab-dev/locator-runner/pkg/wait"
)

// runApp runs the CLI with args and returns what it printed.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := NewApp(&out).Run(append([]string{"locator-runner", "--no-ansi"}, args...))
	return out.String(), err
}

// withSessions makes openSession hand out the given sessions in order and
// returns a counter of closed sessions.
func withSessions(t *testing.T, sessions ...*mock.Session) *int32 {
	t.Helper()
	old := openSession
	var next, closed int32
	openSession = func(rc *RunConfig) (core.Session, func(), error) {
		i := int(atomic.AddInt32(&next, 1)) - 1
		if i >= len(sessions) {
			return nil, nil, core.ErrServerUnreachable.WithMessage("no more sessions")
		}
		return sessions[i], func() { atomic.AddInt32(&closed, 1) }, nil
	}
	t.Cleanup(func() { openSession = old })
	return &closed
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGlobalFlags(t *testing.T) {
	if len(GlobalFlags) == 0 {
		t.Error("expected GlobalFlags to be defined")
	}

	flagNames := make(map[string]bool)
	for _, f := range GlobalFlags {
		for _, name := range f.Names() {
			flagNames[name] = true
		}
	}

	requiredFlags := []string{"config", "platform", "p", "server-url", "properties-dir", "wait-time",
		"polling-interval", "log-file", "verbose", "saved", "caps", "repository", "workers"}
	for _, name := range requiredFlags {
		if !flagNames[name] {
			t.Errorf("expected flag %q to be defined", name)
		}
	}
}

func TestResolveCommand(t *testing.T) {
	out, err := runApp(t, "--saved", "user=alice", "resolve", "By.id: ---SavedValue:-:user---")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !strings.Contains(out, `id "alice" on web`) {
		t.Errorf("expected lookup plan in output, got:\n%s", out)
	}
	if !strings.Contains(out, "id:alice") {
		t.Errorf("expected resolved locator in output, got:\n%s", out)
	}
}

func TestResolveCommand_PropertyFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "login.properties", "submit=Sign in\n")

	out, err := runApp(t, "--platform", "hybrid", "--properties-dir", dir,
		"resolve", "button_text:---login:-:submit---")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !strings.Contains(out, `script("Sign in") on hybrid`) {
		t.Errorf("expected reactive script plan, got:\n%s", out)
	}
}

func TestResolveCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"unresolved parameter", []string{"resolve", "id:---SavedValue:-:missing---"}, core.ErrUnresolvedParameter},
		{"unknown strategy", []string{"resolve", "sparkle:x"}, core.ErrUnsupportedStrategy},
		{"mobile strategy on web", []string{"resolve", "accessibility_id:Login"}, core.ErrUnsupportedStrategy},
		{"no prefix", []string{"resolve", "login"}, core.ErrInvalidLocator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runApp(t, tt.args...)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := runApp(t, "resolve"); err == nil {
		t.Error("expected error when no locator is given")
	}
}

func TestResolveCommand_InvalidSaved(t *testing.T) {
	_, err := runApp(t, "--saved", "novalue", "resolve", "id:x")
	if !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("expected invalid config, got %v", err)
	}
}

const pagesYAML = `
login:
  username: "id:user"
  submit: "css:button[type=submit]"
  remember: "model:user.remember"
`

func TestCheckCommand(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pages.yaml", pagesYAML)

	out, err := runApp(t, "check", path)
	if err == nil {
		t.Fatal("expected error: model locators are not supported on web")
	}
	if !strings.Contains(out, "2/3 locators") {
		t.Errorf("expected 2/3 summary, got:\n%s", out)
	}
	if !strings.Contains(out, "✗ login.remember") {
		t.Errorf("expected login.remember to fail, got:\n%s", out)
	}
	if !strings.Contains(out, "Supported on web:") || !strings.Contains(out, "partial_link_text") {
		t.Errorf("expected the supported strategies of web, got:\n%s", out)
	}

	out, err = runApp(t, "--platform", "hybrid", "check", path)
	if err != nil {
		t.Fatalf("check on hybrid failed: %v\n%s", err, out)
	}
}

func TestCheckCommand_NoSubstitute(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pages.yaml", "home:\n  user: \"id:---SavedValue:-:u---\"\n")

	if _, err := runApp(t, "check", path); err == nil {
		t.Error("expected unresolved parameter to fail")
	}
	out, err := runApp(t, "check", "--no-substitute", path)
	if err != nil {
		t.Errorf("expected raw plan to pass, got %v", err)
	}
	if strings.Contains(out, "Supported on") {
		t.Errorf("did not expect a strategy list when everything plans, got:\n%s", out)
	}
}

func TestCheckCommand_NoRepository(t *testing.T) {
	_, err := runApp(t, "check")
	if err == nil || !strings.Contains(err.Error(), "repository") {
		t.Errorf("expected repository error, got %v", err)
	}
}

func TestFindCommand(t *testing.T) {
	a := mock.New(mock.Config{})
	b := mock.New(mock.Config{})
	for _, s := range []*mock.Session{a, b} {
		s.Add(core.UsingCSS, ".row", mock.NewElement("r1", ""), mock.NewElement("r2", ""))
		s.Add(core.UsingID, "total", mock.NewElement("t", "42"))
	}
	closed := withSessions(t, a, b)

	out, err := runApp(t, "--workers", "2", "find", "css:.row", "id:total")
	if err != nil {
		t.Fatalf("find failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "css:.row  2 element(s)") || !strings.Contains(out, "id:total  1 element(s)") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "2/2 locators found") {
		t.Errorf("expected summary, got:\n%s", out)
	}
	if got := atomic.LoadInt32(closed); got != 2 {
		t.Errorf("expected 2 sessions closed, got %d", got)
	}
}

func TestFindCommand_Missing(t *testing.T) {
	s := mock.New(mock.Config{})
	withSessions(t, s)

	out, err := runApp(t, "find", "id:nope")
	if err == nil {
		t.Fatal("expected error for a missing element")
	}
	if !strings.Contains(out, "✗ id:nope") {
		t.Errorf("expected failure line, got:\n%s", out)
	}
}

func TestFindCommand_ConnectError(t *testing.T) {
	withSessions(t)
	_, err := runApp(t, "find", "id:x")
	if !errors.Is(err, core.ErrServerUnreachable) {
		t.Errorf("expected server unreachable, got %v", err)
	}
}

func TestWaitCommand(t *testing.T) {
	s := mock.New(mock.Config{})
	el := mock.NewElement("btn", "Continue")
	s.Add(core.UsingID, "next", el)
	closed := withSessions(t, s)

	out, err := runApp(t, "wait", "--timeout", "0", "text", "id:next", "Cont")
	if err != nil {
		t.Fatalf("wait failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "held after") {
		t.Errorf("expected success line, got:\n%s", out)
	}
	if atomic.LoadInt32(closed) != 1 {
		t.Error("expected the session to be closed")
	}
}

func TestWaitCommand_Timeout(t *testing.T) {
	withSessions(t, mock.New(mock.Config{}))

	start := time.Now()
	_, err := runApp(t, "--polling-interval", "0.01", "wait", "--timeout", "0.05", "visible", "id:never")
	if !errors.Is(err, core.ErrWaitTimeout) {
		t.Fatalf("expected wait timeout, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("wait ignored --timeout")
	}
}

func TestWaitCommand_Alert(t *testing.T) {
	s := mock.New(mock.Config{})
	s.AlertOpen = true
	s.AlertMessage = "Session expired"
	withSessions(t, s)

	out, err := runApp(t, "wait", "--timeout", "0", "alert")
	if err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if !strings.Contains(out, "Session expired") {
		t.Errorf("expected alert text, got:\n%s", out)
	}
}

func TestWaitCommand_BadArgsDoNotConnect(t *testing.T) {
	withSessions(t)
	if _, err := runApp(t, "wait", "visible"); err == nil || errors.Is(err, core.ErrServerUnreachable) {
		t.Errorf("expected argument error before connecting, got %v", err)
	}
}

func TestBuildCondition(t *testing.T) {
	tests := []struct {
		kind string
		args []string
		want wait.Kind
	}{
		{"present", []string{"id:a"}, wait.KindPresent},
		{"VISIBLE", []string{"id:a"}, wait.KindVisible},
		{"clickable", []string{"id:a"}, wait.KindClickable},
		{"invisible", []string{"id:a"}, wait.KindInvisible},
		{"selected", []string{"id:a"}, wait.KindSelected},
		{"list-present", []string{"css:.a"}, wait.KindListPresent},
		{"list-visible", []string{"css:.a"}, wait.KindListVisible},
		{"text", []string{"id:a", "hi"}, wait.KindTextContains},
		{"expression", []string{"id:a", "enabled"}, wait.KindExpression},
		{"attr-equals", []string{"id:a", "type", "submit"}, wait.KindAttributeEquals},
		{"attr-contains", []string{"id:a", "class", "active"}, wait.KindAttributeContain},
		{"alert", nil, wait.KindAlert},
	}
	for _, tt := range tests {
		cond, err := buildCondition(nil, tt.kind, tt.args)
		if err != nil {
			t.Errorf("buildCondition(%q) error: %v", tt.kind, err)
			continue
		}
		if cond.Kind != tt.want {
			t.Errorf("buildCondition(%q) kind = %q, want %q", tt.kind, cond.Kind, tt.want)
		}
	}
}

func TestBuildCondition_Errors(t *testing.T) {
	tests := []struct {
		kind string
		args []string
	}{
		{"sparkle", []string{"id:a"}},
		{"visible", nil},
		{"visible", []string{"id:a", "extra"}},
		{"text", []string{"id:a"}},
		{"attr-equals", []string{"id:a", "type"}},
		{"alert", []string{"id:a"}},
		{"present", []string{"nope"}},
		{"expression", []string{"id:a", "text.length >"}},
	}
	for _, tt := range tests {
		if _, err := buildCondition(nil, tt.kind, tt.args); err == nil {
			t.Errorf("buildCondition(%q, %v) expected error", tt.kind, tt.args)
		}
	}
}

func TestWaitCommand_BadExpressionDoesNotConnect(t *testing.T) {
	withSessions(t)
	_, err := runApp(t, "wait", "expression", "id:a", "text ===")
	if !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("expected expression parse error before connecting, got %v", err)
	}
}

func TestBuildCondition_Repository(t *testing.T) {
	repo, err := locator.ParseRepository([]byte(pagesYAML), "pages.yaml")
	if err != nil {
		t.Fatal(err)
	}
	cond, err := buildCondition(repo, "visible", []string{"login.username"})
	if err != nil {
		t.Fatal(err)
	}
	if cond.Locator == nil || cond.Locator.String() != "id:user" {
		t.Errorf("expected repository locator, got %v", cond.Locator)
	}
}

func TestParseKeyValues(t *testing.T) {
	result, err := parseKeyValues([]string{"USER=test", "URL=a=b", "EMPTY="})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["USER"] != "test" || result["URL"] != "a=b" || result["EMPTY"] != "" {
		t.Errorf("unexpected result %v", result)
	}

	for _, bad := range []string{"novalue", "=x"} {
		if _, err := parseKeyValues([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestLoadCapabilities(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "caps.json", `{"platformName": "Android", "appium:automationName": "UiAutomator2"}`)

	caps, err := loadCapabilities(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if caps["appium:automationName"] != "UiAutomator2" {
		t.Errorf("expected appium:automationName=UiAutomator2, got %v", caps["appium:automationName"])
	}

	if _, err := loadCapabilities(writeFile(t, dir, "bad.json", "{")); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := loadCapabilities(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadRunConfig_FlagOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", `
platform: android
standard_wait_time_seconds: 9
saved:
  userName: bob
capabilities:
  appium:deviceName: Pixel
`)
	capsPath := writeFile(t, dir, "caps.json", `{"appium:udid": "emulator-5554"}`)

	var got *RunConfig
	old := openSession
	openSession = func(rc *RunConfig) (core.Session, func(), error) {
		got = rc
		return nil, nil, errors.New("stop")
	}
	defer func() { openSession = old }()

	_, _ = runApp(t, "--config", cfgPath, "--caps", capsPath, "--wait-time", "2", "-s", "extra=1",
		"wait", "present", "id:x")
	if got == nil {
		t.Fatal("expected a session to be requested")
	}
	if got.Config.ActivePlatform() != core.PlatformAndroid {
		t.Errorf("platform = %s", got.Config.Platform)
	}
	if got.Config.StandardWait() != 2*time.Second {
		t.Errorf("standard wait = %v, want flag override", got.Config.StandardWait())
	}
	if got.Config.Saved["userName"] != "bob" || got.Config.Saved["extra"] != "1" {
		t.Errorf("saved = %v", got.Config.Saved)
	}
	if got.Capabilities["appium:deviceName"] != "Pixel" || got.Capabilities["appium:udid"] != "emulator-5554" {
		t.Errorf("capabilities = %v", got.Capabilities)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{0, "0ms"},
		{500 * time.Millisecond, "500ms"},
		{1500 * time.Millisecond, "1.5s"},
		{2126 * time.Millisecond, "2.1s"},
		{61 * time.Second, "1m 1s"},
		{125 * time.Second, "2m 5s"},
	}

	for _, tc := range tests {
		result := formatDuration(tc.d)
		if result != tc.expected {
			t.Errorf("formatDuration(%v) = %q, expected %q", tc.d, result, tc.expected)
		}
	}
}

func TestColor_Enabled(t *testing.T) {
	oldEnabled := colorsEnabled
	defer func() { colorsEnabled = oldEnabled }()

	colorsEnabled = true
	result := color(colorGreen)
	if result != colorGreen {
		t.Errorf("color(colorGreen) with colors enabled = %q, want %q", result, colorGreen)
	}
}

func TestColor_Disabled(t *testing.T) {
	oldEnabled := colorsEnabled
	defer func() { colorsEnabled = oldEnabled }()

	colorsEnabled = false
	result := color(colorGreen)
	if result != "" {
		t.Errorf("color(colorGreen) with colors disabled = %q, want empty string", result)
	}
}

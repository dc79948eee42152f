package core

import (
	"errors"
	"testing"
)

func TestBounds_Center(t *testing.T) {
	tests := []struct {
		bounds    Bounds
		expectedX int
		expectedY int
	}{
		{Bounds{X: 0, Y: 0, Width: 100, Height: 100}, 50, 50},
		{Bounds{X: 10, Y: 20, Width: 100, Height: 200}, 60, 120},
		{Bounds{X: 0, Y: 0, Width: 0, Height: 0}, 0, 0},
	}

	for _, tt := range tests {
		x, y := tt.bounds.Center()
		if x != tt.expectedX || y != tt.expectedY {
			t.Errorf("Bounds%+v.Center() = (%d, %d), want (%d, %d)",
				tt.bounds, x, y, tt.expectedX, tt.expectedY)
		}
	}
}

func TestBounds_Contains(t *testing.T) {
	bounds := Bounds{X: 10, Y: 10, Width: 100, Height: 100}

	tests := []struct {
		x, y     int
		expected bool
	}{
		{50, 50, true},    // Center
		{10, 10, true},    // Top-left corner
		{109, 109, true},  // Just inside bottom-right
		{110, 110, false}, // Exactly at boundary (exclusive)
		{0, 0, false},     // Outside
		{200, 200, false}, // Far outside
	}

	for _, tt := range tests {
		if got := bounds.Contains(tt.x, tt.y); got != tt.expected {
			t.Errorf("Bounds.Contains(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.expected)
		}
	}
}

type stubElement struct {
	text     string
	attrs    map[string]string
	rectErr  error
	selected bool
}

func (e *stubElement) ID() string                 { return "stub" }
func (e *stubElement) Text() (string, error)      { return e.text, nil }
func (e *stubElement) IsDisplayed() (bool, error) { return true, nil }
func (e *stubElement) IsEnabled() (bool, error)   { return true, nil }
func (e *stubElement) IsSelected() (bool, error)  { return e.selected, nil }
func (e *stubElement) Rect() (Bounds, error)      { return Bounds{Width: 10, Height: 10}, e.rectErr }
func (e *stubElement) Attribute(n string) (string, error) {
	return e.attrs[n], nil
}

func TestSnapshot(t *testing.T) {
	el := &stubElement{text: "Submit", attrs: map[string]string{"class": "btn"}, selected: true}

	snap, err := Snapshot(el, "class")
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if snap.Text != "Submit" || !snap.Displayed || !snap.Enabled || !snap.Selected {
		t.Errorf("Snapshot() = %+v", snap)
	}
	if snap.Attributes["class"] != "btn" {
		t.Errorf("Attributes[class] = %q, want btn", snap.Attributes["class"])
	}
	if snap.Bounds.Width != 10 {
		t.Errorf("Bounds.Width = %d, want 10", snap.Bounds.Width)
	}
}

func TestSnapshot_Errors(t *testing.T) {
	if _, err := Snapshot(nil); !errors.Is(err, ErrNilElement) {
		t.Errorf("Snapshot(nil) error = %v, want nil_element", err)
	}

	el := &stubElement{rectErr: ErrStaleElement}
	if _, err := Snapshot(el); !errors.Is(err, ErrStaleElement) {
		t.Errorf("Snapshot() error = %v, want stale_element", err)
	}
}

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		in      string
		want    Platform
		wantErr bool
	}{
		{"web", PlatformWeb, false},
		{"Browser", PlatformWeb, false},
		{"hybrid", PlatformHybrid, false},
		{"angular", PlatformHybrid, false},
		{" ANDROID ", PlatformAndroid, false},
		{"ios", PlatformIOS, false},
		{"windows", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParsePlatform(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePlatform(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePlatform(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if tt.wantErr && !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("ParsePlatform(%q) error = %v, want invalid_config", tt.in, err)
		}
	}
}

func TestPlatform_Families(t *testing.T) {
	if !PlatformAndroid.IsMobile() || !PlatformIOS.IsMobile() || PlatformWeb.IsMobile() {
		t.Error("IsMobile() mismatch")
	}
	if !PlatformWeb.IsWeb() || !PlatformHybrid.IsWeb() || PlatformIOS.IsWeb() {
		t.Error("IsWeb() mismatch")
	}
}

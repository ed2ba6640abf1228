package pattern

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPresets(t *testing.T) {
	ps := Presets()
	if len(ps) != 5 {
		t.Fatalf("len(Presets()) = %d, want 5", len(ps))
	}
	want := []string{"4-4-4-4", "4-7-8-0", "2-0-2-0", "5-0-5-0", "4-4-4-4"}
	for i, p := range ps {
		if p.String() != want[i] {
			t.Errorf("preset %d (%s) = %s, want %s", i, p.Name, p.String(), want[i])
		}
		if err := p.Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", p.Name, err)
		}
	}
	if ps[CustomIndex].Name != "Custom" {
		t.Errorf("preset at CustomIndex = %q, want Custom", ps[CustomIndex].Name)
	}
}

func TestPhase_Next(t *testing.T) {
	tests := []struct {
		in   Phase
		want Phase
	}{
		{PhaseIdle, PhaseInhale},
		{PhaseInhale, PhaseHold1},
		{PhaseHold1, PhaseExhale},
		{PhaseExhale, PhaseHold2},
		{PhaseHold2, PhaseInhale},
	}
	for _, tt := range tests {
		if got := tt.in.Next(); got != tt.want {
			t.Errorf("%s.Next() = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestPhase_Label(t *testing.T) {
	if got := PhaseHold2.Label(); got != "Hold empty" {
		t.Errorf("Label() = %q, want %q", got, "Hold empty")
	}
	if got := PhaseIdle.Label(); got != "Begin" {
		t.Errorf("Label() = %q, want %q", got, "Begin")
	}
}

func TestPattern_ActivePhases(t *testing.T) {
	p := Pattern{Inhale: 4, Hold1: 7, Exhale: 8}
	got := p.ActivePhases()
	want := []Phase{PhaseInhale, PhaseHold1, PhaseExhale}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ActivePhases() mismatch (-want +got):\n%s", diff)
	}
	if p.CycleSeconds() != 19 {
		t.Errorf("CycleSeconds() = %d, want 19", p.CycleSeconds())
	}
}

func TestPattern_Validate(t *testing.T) {
	tests := []struct {
		name    string
		p       Pattern
		wantErr error
	}{
		{"valid", Pattern{Inhale: 4, Exhale: 4}, nil},
		{"all zero", Pattern{}, ErrEmptyPattern},
		{"negative", Pattern{Inhale: -1, Exhale: 4}, ErrInvalidDuration},
		{"too long", Pattern{Inhale: 61}, ErrInvalidDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := (Pattern{Inhale: 11}).ValidateCustom(); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("ValidateCustom() = %v, want ErrInvalidDuration", err)
	}
}

func TestParse(t *testing.T) {
	p, err := Parse("4-7-8-0")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Inhale != 4 || p.Hold1 != 7 || p.Exhale != 8 || p.Hold2 != 0 {
		t.Errorf("Parse() = %+v", p)
	}
	if p.String() != "4-7-8-0" {
		t.Errorf("String() = %q", p.String())
	}

	for _, bad := range []string{"", "4-4-4", "a-b-c-d", "0-0-0-0"} {
		if _, err := Parse(bad); err == nil {
			t.Errorf("Parse(%q) expected error", bad)
		}
	}
}

func TestLibrary_Resolve(t *testing.T) {
	lib := NewLibrary(nil)
	custom := Pattern{Name: "Custom", Inhale: 3, Exhale: 6}

	if got := lib.Resolve(1, custom); got.Name != "4-7-8 Breathing" {
		t.Errorf("Resolve(1) = %q", got.Name)
	}
	if got := lib.Resolve(CustomIndex, custom); got != custom {
		t.Errorf("Resolve(CustomIndex) = %+v, want %+v", got, custom)
	}
	if got := lib.Resolve(42, custom); got.Name != "Box Breathing" {
		t.Errorf("Resolve(42) = %q, want fallback to Box Breathing", got.Name)
	}
	if got := lib.Next(CustomIndex); got != 0 {
		t.Errorf("Next(last) = %d, want 0", got)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	content := `patterns:
  - name: Triangle
    inhale: 4
    hold1: 4
    exhale: 4
  - inhale: 6
    exhale: 6
    description: Coherent breathing
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	ps, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(ps) != 2 {
		t.Fatalf("len = %d, want 2", len(ps))
	}
	if ps[0].String() != "4-4-4-0" {
		t.Errorf("first pattern = %s", ps[0])
	}
	if ps[1].Name != "Pattern 2" {
		t.Errorf("unnamed pattern got name %q", ps[1].Name)
	}

	lib := NewLibrary(ps)
	if lib.Len() != 7 {
		t.Errorf("Len() = %d, want 7", lib.Len())
	}
	if i, ok := lib.Find("triangle"); !ok || i != 5 {
		t.Errorf("Find(triangle) = %d, %v", i, ok)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	ps, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil || ps != nil {
		t.Errorf("LoadFile(missing) = %v, %v; want nil, nil", ps, err)
	}
}

func TestLoadFile_InvalidPattern(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	os.WriteFile(path, []byte("patterns:\n  - name: Empty\n"), 0644)
	if _, err := LoadFile(path); !errors.Is(err, ErrEmptyPattern) {
		t.Errorf("LoadFile() = %v, want ErrEmptyPattern", err)
	}
}

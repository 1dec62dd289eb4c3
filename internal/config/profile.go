package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// autoToken is the serialized form of FramesPerViewAuto.
const autoToken = "auto"

// FramesPerView is the number of frames kept per direction for an action:
// either an explicit positive count or automatic ("use every frame").
// The zero value is automatic.
type FramesPerView struct {
	count int
}

// FramesPerViewAuto returns the automatic value.
func FramesPerViewAuto() FramesPerView {
	return FramesPerView{}
}

// FramesPerViewExplicit returns an explicit count.
func FramesPerViewExplicit(n int) FramesPerView {
	if n == 0 {
		// Keep zero distinguishable from auto so Validate can reject it.
		n = -1
	}
	return FramesPerView{count: n}
}

// IsAuto reports whether the value is automatic.
func (f FramesPerView) IsAuto() bool {
	return f.count == 0
}

// Count returns the explicit count, or 0 when automatic.
func (f FramesPerView) Count() int {
	if f.count < 0 {
		return 0
	}
	return f.count
}

// Valid reports whether an explicit value is positive.
func (f FramesPerView) Valid() bool {
	return f.count >= 0
}

// Resolve returns the desired frame count given the available total.
func (f FramesPerView) Resolve(total int) int {
	if f.IsAuto() {
		return total
	}
	return f.Count()
}

func (f FramesPerView) String() string {
	if f.IsAuto() {
		return autoToken
	}
	return strconv.Itoa(f.count)
}

func parseFramesPerView(raw string) (FramesPerView, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, autoToken) {
		return FramesPerViewAuto(), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return FramesPerView{}, fmt.Errorf("frames per view must be a positive integer or %q, got %q", autoToken, raw)
	}
	return FramesPerViewExplicit(n), nil
}

// UnmarshalYAML accepts an integer, "auto", or null.
func (f *FramesPerView) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: frames per view must be a scalar", value.Line)
	}
	if value.Tag == "!!null" {
		*f = FramesPerViewAuto()
		return nil
	}
	parsed, err := parseFramesPerView(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*f = parsed
	return nil
}

// MarshalYAML emits an integer or "auto".
func (f FramesPerView) MarshalYAML() (interface{}, error) {
	if f.IsAuto() {
		return autoToken, nil
	}
	return f.count, nil
}

// UnmarshalJSON accepts a number, "auto", or null.
func (f *FramesPerView) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*f = FramesPerViewAuto()
	case float64:
		if v != float64(int(v)) {
			return fmt.Errorf("frames per view must be an integer, got %v", v)
		}
		*f = FramesPerViewExplicit(int(v))
	case string:
		parsed, err := parseFramesPerView(v)
		if err != nil {
			return err
		}
		*f = parsed
	default:
		return fmt.Errorf("frames per view must be a number or %q", autoToken)
	}
	return nil
}

// MarshalJSON emits a number or "auto".
func (f FramesPerView) MarshalJSON() ([]byte, error) {
	if f.IsAuto() {
		return json.Marshal(autoToken)
	}
	return json.Marshal(f.count)
}

// Profile describes how one entity type is laid out.
type Profile struct {
	// Actions in output order.
	Actions []string `yaml:"actions" json:"actions"`

	// RowDirectionOrder is the direction order of rows in the sheet.
	RowDirectionOrder []string `yaml:"row_direction_order" json:"row_direction_order"`

	// InputDirectionOrder overrides the global storage order when set.
	InputDirectionOrder []string `yaml:"input_direction_order,omitempty" json:"input_direction_order,omitempty"`

	// FramesPerView maps a frames key (action name) to its frame count.
	FramesPerView map[string]FramesPerView `yaml:"frames_per_view" json:"frames_per_view"`
}

// InputOrder returns the profile's input direction order, or fallback.
func (p Profile) InputOrder(fallback []string) []string {
	if len(p.InputDirectionOrder) > 0 {
		return p.InputDirectionOrder
	}
	return fallback
}

// Frames returns the configured frames per view for key; missing keys are
// automatic.
func (p Profile) Frames(key string) FramesPerView {
	if f, ok := p.FramesPerView[key]; ok {
		return f
	}
	return FramesPerViewAuto()
}

// WithFramesOverrides returns a copy of p with explicit counts replacing the
// configured frames per view for the given actions.
func (p Profile) WithFramesOverrides(overrides map[string]int) Profile {
	if len(overrides) == 0 {
		return p
	}
	out := p
	out.FramesPerView = make(map[string]FramesPerView, len(p.FramesPerView)+len(overrides))
	for k, v := range p.FramesPerView {
		out.FramesPerView[k] = v
	}
	for k, n := range overrides {
		out.FramesPerView[k] = FramesPerViewExplicit(n)
	}
	return out
}

// ParseFramesPerViewOverrides parses repeated "action=N" flags.
func ParseFramesPerViewOverrides(values []string) (map[string]int, error) {
	overrides := make(map[string]int, len(values))
	for _, raw := range values {
		action, count, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --frames-per-view '%s', expected action=NUM", raw)
		}
		action = strings.ToLower(strings.TrimSpace(action))
		if action == "" {
			return nil, fmt.Errorf("invalid --frames-per-view '%s', missing action name", raw)
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil {
			return nil, fmt.Errorf("invalid --frames-per-view '%s', NUM must be an integer", raw)
		}
		if n <= 0 {
			return nil, fmt.Errorf("invalid --frames-per-view '%s', NUM must be > 0", raw)
		}
		overrides[action] = n
	}
	return overrides, nil
}

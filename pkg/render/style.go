package render

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
)

// Style is a class-naming profile for error display.
type Style struct {
	Name string
	// ErrorClass is added to every display element of a failing unit.
	ErrorClass string
	// MessageTag and MessageClass describe the inserted message node.
	// MessageTag defaults to "div".
	MessageTag   string
	MessageClass string
	// WrapperClass, when set, wraps a single display element in a
	// WrapperTag element (default "div") while the error is shown.
	WrapperTag   string
	WrapperClass string
}

// Names of the built-in styles.
const (
	StyleDefault   = "default"
	StyleBootstrap = "bootstrap"
	StyleTailwind  = "tailwind"
)

var (
	stylesMu sync.RWMutex
	styles   = map[string]Style{
		StyleDefault: {
			Name:         StyleDefault,
			ErrorClass:   "fg-invalid",
			MessageTag:   "div",
			MessageClass: "fg-error",
		},
		StyleBootstrap: {
			Name:         StyleBootstrap,
			ErrorClass:   "is-invalid",
			MessageTag:   "div",
			MessageClass: "invalid-feedback d-block",
		},
		StyleTailwind: {
			Name:         StyleTailwind,
			ErrorClass:   "border-red-500 focus:ring-red-500",
			MessageTag:   "p",
			MessageClass: "mt-1 text-sm text-red-600",
			WrapperTag:   "div",
			WrapperClass: "relative",
		},
	}
)

var tagName = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

func (s Style) normalize() Style {
	s.Name = strings.TrimSpace(s.Name)
	s.MessageTag = strings.ToLower(strings.TrimSpace(s.MessageTag))
	s.WrapperTag = strings.ToLower(strings.TrimSpace(s.WrapperTag))
	if s.MessageTag == "" {
		s.MessageTag = "div"
	}
	if s.WrapperClass != "" && s.WrapperTag == "" {
		s.WrapperTag = "div"
	}
	return s
}

func (s Style) validate() error {
	switch {
	case s.Name == "":
		return fmt.Errorf("%w: missing name", ErrInvalidStyle)
	case strings.TrimSpace(s.ErrorClass) == "":
		return fmt.Errorf("%w %q: missing error class", ErrInvalidStyle, s.Name)
	case !tagName.MatchString(s.MessageTag):
		return fmt.Errorf("%w %q: bad message tag %q", ErrInvalidStyle, s.Name, s.MessageTag)
	case s.WrapperClass != "" && !tagName.MatchString(s.WrapperTag):
		return fmt.Errorf("%w %q: bad wrapper tag %q", ErrInvalidStyle, s.Name, s.WrapperTag)
	}
	return nil
}

// Wraps reports whether the style wraps display elements.
func (s Style) Wraps() bool { return s.WrapperClass != "" }

// RegisterStyle adds or replaces a style profile.
func RegisterStyle(s Style) error {
	s = s.normalize()
	if err := s.validate(); err != nil {
		return err
	}
	stylesMu.Lock()
	defer stylesMu.Unlock()
	styles[s.Name] = s
	return nil
}

// LookupStyle returns the profile registered under name.
func LookupStyle(name string) (Style, error) {
	stylesMu.RLock()
	defer stylesMu.RUnlock()
	s, ok := styles[strings.TrimSpace(name)]
	if !ok {
		return Style{}, fmt.Errorf("%w: %q", ErrUnknownStyle, name)
	}
	return s, nil
}

// Styles returns the registered style names, sorted.
func Styles() []string {
	stylesMu.RLock()
	defer stylesMu.RUnlock()
	names := make([]string, 0, len(styles))
	for name := range styles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

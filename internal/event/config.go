package event

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Orientation of the screen.
type Orientation int

const (
	OrientationAny Orientation = iota
	OrientationPortrait
	OrientationLandscape
	OrientationSquare
)

func (o Orientation) String() string {
	switch o {
	case OrientationPortrait:
		return "portrait"
	case OrientationLandscape:
		return "landscape"
	case OrientationSquare:
		return "square"
	default:
		return "any"
	}
}

// ParseOrientation parses the String form of an Orientation. The empty
// string maps to OrientationAny.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(s) {
	case "", "any":
		return OrientationAny, nil
	case "portrait":
		return OrientationPortrait, nil
	case "landscape":
		return OrientationLandscape, nil
	case "square":
		return OrientationSquare, nil
	default:
		return OrientationAny, fmt.Errorf("unknown orientation %q", s)
	}
}

// Configuration is an immutable snapshot of the device configuration.
//
// It is passed and stored by value. A ConfigChanged event replaces the
// host's snapshot wholesale; nothing edits a snapshot in place.
type Configuration struct {
	Orientation Orientation
	// Density in dots per inch.
	Density int
	// Locale is a BCP 47 tag, e.g. "en-US".
	Locale         string
	ScreenWidthDp  int
	ScreenHeightDp int
	// FontScalePermille is the user font scale times 1000.
	FontScalePermille int
	NightMode         bool
}

// Normalized returns a copy with the locale canonicalised.
func (c Configuration) Normalized() (Configuration, error) {
	if c.Locale == "" {
		return c, nil
	}
	locale, err := CanonicalLocale(c.Locale)
	if err != nil {
		return c, err
	}
	c.Locale = locale
	return c, nil
}

func (c Configuration) String() string {
	return fmt.Sprintf("config(%s %ddpi %s %dx%ddp)",
		c.Orientation, c.Density, c.Locale, c.ScreenWidthDp, c.ScreenHeightDp)
}

// CanonicalLocale parses a locale tag in either BCP 47 ("en-US") or POSIX
// style ("en_US") and returns its canonical BCP 47 form.
func CanonicalLocale(s string) (string, error) {
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return "", fmt.Errorf("invalid locale %q: %w", s, err)
	}
	return tag.String(), nil
}

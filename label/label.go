// Package label models per-token tags: the position markers of a labeling
// scheme and the immutable id→label mapping shared by a whole evaluation run.
package label

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for label resolution.
var (
	// ErrUnknownID indicates a tag id outside the label map. The model output
	// id space and the label configuration have diverged.
	ErrUnknownID = errors.New("label: unknown tag id")

	// ErrMalformedTag indicates a tag string that does not belong to the
	// selected scheme.
	ErrMalformedTag = errors.New("label: malformed tag")

	// ErrUnknownScheme indicates a scheme name other than bio or bios.
	ErrUnknownScheme = errors.New("label: unknown scheme")

	// ErrDuplicateLabel indicates the same tag appears twice in a label list.
	ErrDuplicateLabel = errors.New("label: duplicate label")

	// ErrInvalidConfig indicates an unreadable or inconsistent label config.
	ErrInvalidConfig = errors.New("label: invalid config")
)

// Outside is the sentinel "no entity" tag.
const Outside = "O"

// Marker is the position of a token relative to an entity.
type Marker uint8

const (
	MarkerOutside Marker = iota
	MarkerBegin
	MarkerInside
	MarkerSingle
)

func (m Marker) String() string {
	switch m {
	case MarkerOutside:
		return "O"
	case MarkerBegin:
		return "B"
	case MarkerInside:
		return "I"
	case MarkerSingle:
		return "S"
	}
	return fmt.Sprintf("Marker(%d)", uint8(m))
}

// Scheme is a token tagging convention.
type Scheme uint8

const (
	// BIOS marks single-token entities with S.
	BIOS Scheme = iota
	// BIO has no single-token marker; a lone entity token is tagged B.
	BIO
)

// ParseScheme resolves a scheme name, case-insensitively.
func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bios":
		return BIOS, nil
	case "bio":
		return BIO, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
}

func (s Scheme) String() string {
	switch s {
	case BIOS:
		return "bios"
	case BIO:
		return "bio"
	}
	return fmt.Sprintf("Scheme(%d)", uint8(s))
}

// Allows reports whether m is part of the scheme's marker set.
func (s Scheme) Allows(m Marker) bool {
	switch m {
	case MarkerOutside, MarkerBegin, MarkerInside:
		return true
	case MarkerSingle:
		return s == BIOS
	}
	return false
}

// Label is a parsed tag. Type is empty for MarkerOutside.
type Label struct {
	Marker Marker
	Type   string
}

// String renders the label back into its tag form.
func (l Label) String() string {
	if l.Marker == MarkerOutside {
		return Outside
	}
	return l.Marker.String() + "-" + l.Type
}

// Parse splits a tag such as "B-name" into marker and type under scheme s.
// The type is everything after the first '-', so types may contain dashes.
func Parse(tag string, s Scheme) (Label, error) {
	if tag == Outside {
		return Label{Marker: MarkerOutside}, nil
	}

	prefix, typ, ok := strings.Cut(tag, "-")
	if !ok || typ == "" || len(prefix) != 1 {
		return Label{}, fmt.Errorf("%w: %q", ErrMalformedTag, tag)
	}

	var m Marker
	switch prefix {
	case "B":
		m = MarkerBegin
	case "I":
		m = MarkerInside
	case "S":
		m = MarkerSingle
	default:
		return Label{}, fmt.Errorf("%w: %q", ErrMalformedTag, tag)
	}

	if !s.Allows(m) {
		return Label{}, fmt.Errorf("%w: %q not allowed in %s scheme", ErrMalformedTag, tag, s)
	}

	return Label{Marker: m, Type: typ}, nil
}

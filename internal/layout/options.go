package layout

import (
	"fmt"

	"github.com/lumipallolabs/nestmap/internal/model"
)

// Variant selects which edge rows accumulate from
type Variant int

const (
	// BottomWeighted places the largest rows at the right/bottom of each rectangle
	BottomWeighted Variant = iota
	// TopWeighted places the largest rows at the left/top of each rectangle
	TopWeighted
)

// String returns the config name of the variant
func (v Variant) String() string {
	switch v {
	case BottomWeighted:
		return "bottom_weighted"
	case TopWeighted:
		return "top_weighted"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// ParseVariant is the inverse of Variant.String
func ParseVariant(s string) (Variant, error) {
	for _, v := range []Variant{BottomWeighted, TopWeighted} {
		if v.String() == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("layout %q must be bottom_weighted or top_weighted: %w", s, model.ErrInvalidArgument)
}

// EmptySpaceLocation controls where a collection's empty space is drawn
type EmptySpaceLocation int

const (
	// EmptySpaceByAlgorithm lets the row builder place empty space like a sibling
	EmptySpaceByAlgorithm EmptySpaceLocation = iota
	// EmptySpaceTop carves empty space out of the top of the rectangle first
	EmptySpaceTop
)

// String returns the config name of the location
func (l EmptySpaceLocation) String() string {
	switch l {
	case EmptySpaceByAlgorithm:
		return "algorithm"
	case EmptySpaceTop:
		return "top"
	default:
		return fmt.Sprintf("EmptySpaceLocation(%d)", int(l))
	}
}

// ParseEmptySpaceLocation is the inverse of EmptySpaceLocation.String
func ParseEmptySpaceLocation(s string) (EmptySpaceLocation, error) {
	for _, l := range []EmptySpaceLocation{EmptySpaceByAlgorithm, EmptySpaceTop} {
		if l.String() == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("empty space %q must be algorithm or top: %w", s, model.ErrInvalidArgument)
}

// TextLocation controls whether parents reserve a text band above their children
type TextLocation int

const (
	// TextTop reserves TextSpacePx above the children of every parent
	TextTop TextLocation = iota
	// TextCenter draws labels over the children and reserves nothing
	TextCenter
)

// String returns the config name of the location
func (l TextLocation) String() string {
	switch l {
	case TextTop:
		return "top"
	case TextCenter:
		return "center"
	default:
		return fmt.Sprintf("TextLocation(%d)", int(l))
	}
}

// ParseTextLocation is the inverse of TextLocation.String
func ParseTextLocation(s string) (TextLocation, error) {
	for _, l := range []TextLocation{TextTop, TextCenter} {
		if l.String() == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("text location %q must be top or center: %w", s, model.ErrInvalidArgument)
}

// Limits for the per-level spacing settings
const (
	MaxPaddingPx                   = 100
	MaxPaddingDecrementPerLevelPx  = 99
	MaxPenWidthPx                  = 100
	MaxPenWidthDecrementPerLevelPx = 99
)

// Options configures a layout pass
type Options struct {
	Variant    Variant
	EmptySpace EmptySpaceLocation
	Text       TextLocation

	// TextSpacePx is reserved at the top of every parent when Text is TextTop
	TextSpacePx float64

	PaddingPx                   int
	PaddingDecrementPerLevelPx  int
	PenWidthPx                  int
	PenWidthDecrementPerLevelPx int
}

// DefaultOptions returns the settings used when nothing is configured
func DefaultOptions() Options {
	return Options{
		Variant:                     BottomWeighted,
		EmptySpace:                  EmptySpaceByAlgorithm,
		Text:                        TextTop,
		TextSpacePx:                 0,
		PaddingPx:                   5,
		PaddingDecrementPerLevelPx:  1,
		PenWidthPx:                  3,
		PenWidthDecrementPerLevelPx: 1,
	}
}

// Validate checks every setting against its allowed range
func (o Options) Validate() error {
	if o.Variant != BottomWeighted && o.Variant != TopWeighted {
		return fmt.Errorf("unknown layout variant %d: %w", int(o.Variant), model.ErrInvalidArgument)
	}
	if o.EmptySpace != EmptySpaceByAlgorithm && o.EmptySpace != EmptySpaceTop {
		return fmt.Errorf("unknown empty space location %d: %w", int(o.EmptySpace), model.ErrInvalidArgument)
	}
	if o.Text != TextTop && o.Text != TextCenter {
		return fmt.Errorf("unknown text location %d: %w", int(o.Text), model.ErrInvalidArgument)
	}
	if o.TextSpacePx < 0 {
		return fmt.Errorf("text space %v must be >= 0: %w", o.TextSpacePx, model.ErrInvalidArgument)
	}
	if err := checkRange("padding", o.PaddingPx, MaxPaddingPx); err != nil {
		return err
	}
	if err := checkRange("padding decrement", o.PaddingDecrementPerLevelPx, MaxPaddingDecrementPerLevelPx); err != nil {
		return err
	}
	if err := checkRange("pen width", o.PenWidthPx, MaxPenWidthPx); err != nil {
		return err
	}
	return checkRange("pen width decrement", o.PenWidthDecrementPerLevelPx, MaxPenWidthDecrementPerLevelPx)
}

func checkRange(name string, v, hi int) error {
	if v < 0 || v > hi {
		return fmt.Errorf("%s %d must be between 0 and %d: %w", name, v, hi, model.ErrInvalidArgument)
	}
	return nil
}

// nextLevel decrements a per-level pixel setting with a floor of 1px. A
// setting that starts at 0 stays 0.
func nextLevel(px, decrement int) int {
	if px <= 0 {
		return 0
	}
	return max(px-decrement, 1)
}

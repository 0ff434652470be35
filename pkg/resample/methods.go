package resample

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Fepozopo/rescale/pkg/pixbuf"
)

// ErrUnknownMethod is returned by ParseMethod for names outside the registry.
var ErrUnknownMethod = errors.New("resample: unknown method")

// Method selects one of the interpolation policies. The set is closed.
type Method uint8

const (
	Nearest Method = iota
	Bilinear
	Bicubic
)

var _ Resizer = Nearest

// Resize implements Resizer.
func (m Method) Resize(src pixbuf.Reader, width, height int) (*pixbuf.Buffer, error) {
	est, err := m.estimator()
	if err != nil {
		return nil, err
	}
	return resample(src, width, height, est)
}

func (m Method) estimator() (estimator, error) {
	switch m {
	case Nearest:
		return estimateNearest, nil
	case Bilinear:
		return estimateBilinear, nil
	case Bicubic:
		return estimateBicubic, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMethod, uint8(m))
	}
}

// String returns the short name used on the command line and in output file names.
func (m Method) String() string {
	for _, s := range Methods {
		if s.Method == m {
			return s.Name
		}
	}
	return fmt.Sprintf("Method(%d)", uint8(m))
}

// MethodSpec describes a method for help text and name lookup.
type MethodSpec struct {
	Method      Method
	Name        string
	Aliases     []string
	Description string
}

// Methods is the registry of available interpolation methods, in the order
// the batch driver runs them by default.
var Methods = []MethodSpec{
	{
		Method:      Nearest,
		Name:        "nearest",
		Aliases:     []string{"nn", "nearest-neighbour", "nearest-neighbor"},
		Description: "Copy the closest source pixel. Fast, blocky, never invents new values.",
	},
	{
		Method:      Bilinear,
		Name:        "bilinear",
		Aliases:     []string{"linear"},
		Description: "Linear blend of the 2x2 neighbourhood.",
	},
	{
		Method:      Bicubic,
		Name:        "cubic",
		Aliases:     []string{"bicubic", "catmull-rom"},
		Description: "Catmull-Rom cubic convolution over the 4x4 neighbourhood; sharper, may ring at hard edges.",
	},
}

// ParseMethod looks a method up by name or alias, ignoring case.
func ParseMethod(name string) (Method, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, s := range Methods {
		if s.Name == n {
			return s.Method, nil
		}
		for _, a := range s.Aliases {
			if a == n {
				return s.Method, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	if _, err := m.estimator(); err != nil {
		return nil, err
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(text []byte) error {
	v, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

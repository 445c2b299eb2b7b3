package grid

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Resolution selects the edge length of a voxel, from 1cm up to 512cm in powers of two.
type Resolution uint8

// Supported resolutions.
const (
	Size1cm Resolution = iota
	Size2cm
	Size4cm
	Size8cm
	Size16cm
	Size32cm
	Size64cm
	Size128cm
	Size256cm
	Size512cm
	resolutionCount
)

// Resolutions lists every supported resolution from finest to coarsest.
func Resolutions() []Resolution {
	all := make([]Resolution, 0, resolutionCount)
	for r := Size1cm; r < resolutionCount; r++ {
		all = append(all, r)
	}
	return all
}

// Valid reports whether r is one of the supported resolutions.
func (r Resolution) Valid() bool {
	return r < resolutionCount
}

// Centimeters is the voxel edge length in centimeters.
func (r Resolution) Centimeters() int {
	return 1 << r
}

// Size is the voxel edge length in meters.
func (r Resolution) Size() float64 {
	return float64(r.Centimeters()) / 100
}

func (r Resolution) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Resolution(%d)", uint8(r))
	}
	return fmt.Sprintf("%dcm", r.Centimeters())
}

// ParseResolution parses strings such as "32cm" or "32".
func ParseResolution(s string) (Resolution, error) {
	trimmed := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "cm")
	for _, r := range Resolutions() {
		if trimmed == fmt.Sprint(r.Centimeters()) {
			return r, nil
		}
	}
	return 0, errors.Errorf("unknown voxel resolution %q", s)
}

// MarshalText renders the resolution as e.g. "32cm".
func (r Resolution) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, errors.Errorf("invalid voxel resolution %d", uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText parses the output of MarshalText.
func (r *Resolution) UnmarshalText(text []byte) error {
	parsed, err := ParseResolution(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

package gesture

import (
	"errors"
	"fmt"

	"github.com/bastiangx/glideserve/pkg/stroke"
)

var (
	// ErrNilDictionary is returned by NewEngine when no dictionary is given.
	ErrNilDictionary = errors.New("gesture: dictionary must not be nil")

	// ErrNilLayout is returned by Predict when no layout is given.
	ErrNilLayout = errors.New("gesture: layout must not be nil")

	// ErrInvalidOptions is returned by NewEngine when an option is out of
	// range; the wrapped message names the field.
	ErrInvalidOptions = errors.New("gesture: invalid options")
)

// Options are the tuning constants of the prediction pipeline. Zero values
// are not usable; start from DefaultOptions and override.
type Options struct {
	// SampleCount is the fixed number of points strokes and templates are
	// resampled to before comparison.
	SampleCount int

	// SmoothWindow is the moving-average window applied to the stroke
	// before resampling. Below 3 disables smoothing.
	SmoothWindow int

	// MinGlideLength is the normalized path length below which input is a
	// tap and yields no predictions.
	MinGlideLength float64

	// InterPoints is how many points are interpolated between consecutive
	// key centers when building word templates.
	InterPoints int

	// StartKeys and EndKeys are how many nearest keys around the stroke's
	// first and last point a candidate's first and last character may
	// match.
	StartKeys int
	EndKeys   int

	// LengthTolerance is the maximum allowed difference between stroke and
	// template path length.
	LengthTolerance float64

	// MaxCandidates caps how many candidates survive pruning; overflow is
	// cut by ascending length difference.
	MaxCandidates int

	// ShapeSigma and LocationSigma are the Gaussian widths of the two
	// scoring channels. Shape runs wider than location: shape distances
	// are already size-normalized, while location errors on a keyboard
	// are small in absolute terms and should be punished faster.
	ShapeSigma    float64
	LocationSigma float64

	// PersonalWeight scales the personal-frequency boost added to corpus
	// frequency. PersonalSaturation is the selection count at which the
	// boost reaches half of PersonalWeight.
	PersonalWeight     float64
	PersonalSaturation float64

	// TopK is how many predictions Predict returns.
	TopK int

	// Workers bounds the goroutines scoring candidates in parallel.
	Workers int
}

// DefaultOptions returns the tuning the engine ships with.
func DefaultOptions() Options {
	return Options{
		SampleCount:        stroke.DefaultSampleCount,
		SmoothWindow:       stroke.DefaultSmoothWindow,
		MinGlideLength:     stroke.TapLengthThreshold,
		InterPoints:        3,
		StartKeys:          2,
		EndKeys:            2,
		LengthTolerance:    0.14,
		MaxCandidates:      2000,
		ShapeSigma:         0.15,
		LocationSigma:      0.08,
		PersonalWeight:     1.0,
		PersonalSaturation: 10,
		TopK:               8,
		Workers:            4,
	}
}

func (o Options) validate() error {
	switch {
	case o.SampleCount < 2:
		return fmt.Errorf("%w: SampleCount %d, need at least 2", ErrInvalidOptions, o.SampleCount)
	case o.MinGlideLength < 0:
		return fmt.Errorf("%w: MinGlideLength %g is negative", ErrInvalidOptions, o.MinGlideLength)
	case o.InterPoints < 0:
		return fmt.Errorf("%w: InterPoints %d is negative", ErrInvalidOptions, o.InterPoints)
	case o.StartKeys < 1:
		return fmt.Errorf("%w: StartKeys %d, need at least 1", ErrInvalidOptions, o.StartKeys)
	case o.EndKeys < 1:
		return fmt.Errorf("%w: EndKeys %d, need at least 1", ErrInvalidOptions, o.EndKeys)
	case o.LengthTolerance <= 0:
		return fmt.Errorf("%w: LengthTolerance %g must be positive", ErrInvalidOptions, o.LengthTolerance)
	case o.MaxCandidates < 1:
		return fmt.Errorf("%w: MaxCandidates %d, need at least 1", ErrInvalidOptions, o.MaxCandidates)
	case o.ShapeSigma <= 0:
		return fmt.Errorf("%w: ShapeSigma %g must be positive", ErrInvalidOptions, o.ShapeSigma)
	case o.LocationSigma <= 0:
		return fmt.Errorf("%w: LocationSigma %g must be positive", ErrInvalidOptions, o.LocationSigma)
	case o.PersonalWeight < 0:
		return fmt.Errorf("%w: PersonalWeight %g is negative", ErrInvalidOptions, o.PersonalWeight)
	case o.PersonalSaturation <= 0:
		return fmt.Errorf("%w: PersonalSaturation %g must be positive", ErrInvalidOptions, o.PersonalSaturation)
	case o.TopK < 1:
		return fmt.Errorf("%w: TopK %d, need at least 1", ErrInvalidOptions, o.TopK)
	case o.Workers < 1:
		return fmt.Errorf("%w: Workers %d, need at least 1", ErrInvalidOptions, o.Workers)
	}
	return nil
}

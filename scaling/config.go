package scaling

import (
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/romgo/internal/errs"
	"github.com/hupe1980/romgo/tensor"
)

// Config selects the centering and normalization of one snapshot block.
// For each step either the explicit vector or the method must be set; an
// explicit vector wins.
type Config struct {
	CenterVec    *mat.Dense
	CenterMethod CenterMethod
	NormVec      *mat.Dense
	NormMethod   NormMethod
}

// Validate checks that both steps have an input and that named methods exist.
func (c Config) Validate() error {
	if c.CenterVec == nil {
		switch c.CenterMethod {
		case CenterZero, CenterInitCond, CenterMean:
		case "":
			return errs.InvalidArgument("neither a center vector nor a centering method given")
		default:
			return errs.InvalidArgument("invalid centering method: %q", c.CenterMethod)
		}
	}
	if c.NormVec == nil {
		switch c.NormMethod {
		case NormOne, NormL2:
		case "":
			return errs.InvalidArgument("neither a norm vector nor a normalization method given")
		default:
			return errs.InvalidArgument("invalid normalization method: %q", c.NormMethod)
		}
	}
	return nil
}

// Apply centers data and then normalizes the centered result.
func (c Config) Apply(data *tensor.Tensor) (scaled *tensor.Tensor, center, norm *mat.Dense, err error) {
	if err := c.Validate(); err != nil {
		return nil, nil, nil, err
	}
	centered, center, err := Center(data, c.CenterVec, c.CenterMethod)
	if err != nil {
		return nil, nil, nil, err
	}
	scaled, norm, err = Normalize(centered, c.NormVec, c.NormMethod)
	if err != nil {
		return nil, nil, nil, err
	}
	return scaled, center, norm, nil
}

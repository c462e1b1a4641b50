package qtensor

import (
	"fmt"
	"math/cmplx"
)

/*
AssertAllClose checks that value and target hold the same number of elements
and that every pair satisfies |v - t| <= atol + rtol*|t|. Both sides may be any
of []complex128, []complex64, []float64, *Dense, *Sparse, *Tensor[complex128],
complex128 or float64.
*/
func AssertAllClose(value, target any, rtol, atol float64) error {
	v, err := flatten(value)
	if err != nil {
		return err
	}
	t, err := flatten(target)
	if err != nil {
		return err
	}

	if len(v) != len(t) {
		return newError(DimensionMismatch, "AssertAllClose", "%d values against %d targets", len(v), len(t))
	}

	mismatched, worst, at := 0, 0.0, -1
	for i := range v {
		diff := cmplx.Abs(v[i] - t[i])
		if diff > atol+rtol*cmplx.Abs(t[i]) {
			mismatched++
			if diff > worst {
				worst, at = diff, i
			}
		}
	}

	if mismatched > 0 {
		return fmt.Errorf("not close (rtol=%g, atol=%g): %d of %d elements differ, largest difference %g at %d (%v vs %v)",
			rtol, atol, mismatched, len(v), worst, at, v[at], t[at])
	}
	return nil
}

/*
ShouldBeAllClose is a goconvey assertion:

	So(state, ShouldBeAllClose, expected)
	So(state, ShouldBeAllClose, expected, 1e-5, 1e-8)

The optional arguments are rtol and atol, both defaulting to 1e-7.
*/
func ShouldBeAllClose(actual any, expected ...any) string {
	if len(expected) == 0 {
		return "ShouldBeAllClose needs an expected value"
	}

	rtol, atol := 1e-7, 1e-7
	if len(expected) > 1 {
		r, ok := expected[1].(float64)
		if !ok {
			return fmt.Sprintf("rtol must be a float64, got %T", expected[1])
		}
		rtol = r
	}
	if len(expected) > 2 {
		a, ok := expected[2].(float64)
		if !ok {
			return fmt.Sprintf("atol must be a float64, got %T", expected[2])
		}
		atol = a
	}

	if err := AssertAllClose(actual, expected[0], rtol, atol); err != nil {
		return err.Error()
	}
	return ""
}

func flatten(x any) ([]complex128, error) {
	switch v := x.(type) {
	case []complex128:
		return v, nil
	case []complex64:
		return castComplex(v, Complex128), nil
	case []float64:
		return castReal(v, Complex128), nil
	case *Dense:
		return v.data, nil
	case *Sparse:
		return v.ToDense().data, nil
	case *Tensor[complex128]:
		return v.data, nil
	case complex128:
		return []complex128{v}, nil
	case float64:
		return []complex128{complex(v, 0)}, nil
	}
	return nil, newError(NotImplemented, "AssertAllClose", "cannot compare values of type %T", x)
}

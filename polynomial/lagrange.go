///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////


// Package polynomial holds the exponent space polynomial arithmetic used for
// threshold secret sharing
package polynomial

import (
	"github.com/pkg/errors"
	"gitlab.com/elixxir/ballotcrypt/exception"
	"gitlab.com/xx_network/crypto/large"
	"sort"
)

// Coefficient returns the Lagrange coefficient of coordinate with respect to
// the other share points degrees:
//
//	prod(degrees) / prod(degree - coordinate) mod q
//
// The degrees must be non-zero, pairwise distinct and differ from
// coordinate.
func Coefficient(q *large.Int, coordinate uint64, degrees []uint64) (*large.Int, error) {
	if len(degrees) == 0 {
		return nil, errors.Wrap(exception.ErrInvalidArgument,
			"lagrange coefficient needs at least one degree")
	}

	seen := make(map[uint64]struct{}, len(degrees))
	numerator := large.NewInt(1)
	denominator := large.NewInt(1)
	c := large.NewIntFromUInt(coordinate)

	for _, d := range degrees {
		if d == 0 {
			return nil, errors.Wrap(exception.ErrInvalidArgument,
				"lagrange degree of zero")
		}
		if d == coordinate {
			return nil, errors.Wrapf(exception.ErrInvalidArgument,
				"lagrange degree %d equals the coordinate", d)
		}
		if _, ok := seen[d]; ok {
			return nil, errors.Wrapf(exception.ErrInvalidArgument,
				"lagrange degree %d repeated", d)
		}
		seen[d] = struct{}{}

		di := large.NewIntFromUInt(d)
		numerator.Mul(numerator, di)
		numerator.Mod(numerator, q)

		diff := large.NewInt(0).Sub(di, c)
		denominator.Mul(denominator, diff)
		denominator.Mod(denominator, q)
	}

	// differences which are multiples of q also vanish
	if denominator.BitLen() == 0 {
		return nil, errors.Wrap(exception.ErrInvalidArgument,
			"lagrange denominator is zero mod q")
	}

	inverse := large.NewInt(0).ModInverse(denominator, q)
	result := numerator.Mul(numerator, inverse)
	return result.Mod(result, q), nil
}

// Evaluate returns sum(coefficients[i] * x^i) mod q
func Evaluate(q *large.Int, coefficients []*large.Int, x uint64) (*large.Int, error) {
	if len(coefficients) == 0 {
		return nil, errors.Wrap(exception.ErrInvalidArgument,
			"cannot evaluate a polynomial without coefficients")
	}

	xi := large.NewIntFromUInt(x)
	result := large.NewInt(0)
	for i := len(coefficients) - 1; i >= 0; i-- {
		result.Mul(result, xi)
		result.Add(result, coefficients[i])
		result.Mod(result, q)
	}
	return result, nil
}

// Interpolate reconstructs f(0) mod q from the points (x, f(x))
func Interpolate(q *large.Int, points map[uint64]*large.Int) (*large.Int, error) {
	if len(points) == 0 {
		return nil, errors.Wrap(exception.ErrInvalidArgument,
			"cannot interpolate without points")
	}

	coordinates := make([]uint64, 0, len(points))
	for x := range points {
		coordinates = append(coordinates, x)
	}
	sort.Slice(coordinates, func(i, j int) bool {
		return coordinates[i] < coordinates[j]
	})

	// a single point is the constant polynomial
	if len(coordinates) == 1 {
		return large.NewInt(0).Mod(points[coordinates[0]], q), nil
	}

	result := large.NewInt(0)
	others := make([]uint64, 0, len(coordinates)-1)
	for i, x := range coordinates {
		others = others[:0]
		others = append(others, coordinates[:i]...)
		others = append(others, coordinates[i+1:]...)

		l, err := Coefficient(q, x, others)
		if err != nil {
			return nil, errors.WithMessagef(err, "point %d", x)
		}
		term := l.Mul(l, points[x])
		result.Add(result, term)
		result.Mod(result, q)
	}
	return result, nil
}

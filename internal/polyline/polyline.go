// Package polyline implements the Google encoded polyline algorithm at
// precision 1e5, the route geometry format produced by the planning backend.
//
// See https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import (
	"errors"
	"fmt"
	"math"

	"tripmap/internal/domain"
)

// ErrMalformedGeometry is returned when an encoded string cannot be decoded
// into whole coordinate pairs.
var ErrMalformedGeometry = errors.New("malformed geometry")

const (
	precision = 1e5

	charOffset   = 63
	chunkBits    = 5
	chunkMask    = 0x1f
	continuation = 0x20

	// A value never needs more chunks than fit its 64-bit accumulator.
	maxShift = 64
)

// Decode turns an encoded polyline into its coordinate sequence. The empty
// string decodes to an empty sequence.
func Decode(encoded string) ([]domain.Coordinate, error) {
	points := make([]domain.Coordinate, 0, len(encoded)/4)

	var lat, lng int64
	index := 0

	for index < len(encoded) {
		dLat, next, err := decodeValue(encoded, index)
		if err != nil {
			return nil, err
		}
		if next >= len(encoded) {
			return nil, fmt.Errorf("%w: latitude at offset %d has no longitude", ErrMalformedGeometry, index)
		}

		dLng, next, err := decodeValue(encoded, next)
		if err != nil {
			return nil, err
		}
		index = next

		lat += dLat
		lng += dLng

		points = append(points, domain.Coordinate{
			Lat: float64(lat) / precision,
			Lng: float64(lng) / precision,
		})
	}

	return points, nil
}

// decodeValue reads one signed delta starting at index and returns it with
// the offset of the next unread character.
func decodeValue(encoded string, index int) (int64, int, error) {
	start := index
	var result uint64
	var shift uint

	for {
		if index >= len(encoded) {
			return 0, index, fmt.Errorf("%w: value at offset %d runs past end of input", ErrMalformedGeometry, start)
		}
		if shift >= maxShift {
			return 0, index, fmt.Errorf("%w: value at offset %d overflows", ErrMalformedGeometry, start)
		}

		b := int(encoded[index]) - charOffset
		if b < 0 {
			return 0, index, fmt.Errorf("%w: invalid character %q at offset %d", ErrMalformedGeometry, encoded[index], index)
		}
		index++

		chunk := uint64(b & chunkMask)
		if shift+chunkBits > maxShift && chunk>>(maxShift-shift) != 0 {
			return 0, index, fmt.Errorf("%w: value at offset %d overflows", ErrMalformedGeometry, start)
		}
		result |= chunk << shift
		shift += chunkBits

		if b < continuation {
			break
		}
	}

	if result&1 != 0 {
		return ^int64(result >> 1), index, nil
	}
	return int64(result >> 1), index, nil
}

// Encode is the inverse of Decode. Coordinates are rounded to 1e-5.
func Encode(points []domain.Coordinate) string {
	if len(points) == 0 {
		return ""
	}

	buf := make([]byte, 0, len(points)*8)
	var prevLat, prevLng int64

	for _, p := range points {
		lat := int64(math.Round(p.Lat * precision))
		lng := int64(math.Round(p.Lng * precision))

		buf = appendValue(buf, lat-prevLat)
		buf = appendValue(buf, lng-prevLng)

		prevLat, prevLng = lat, lng
	}

	return string(buf)
}

func appendValue(buf []byte, v int64) []byte {
	u := uint64(v) << 1
	if v < 0 {
		u = ^u
	}
	for u >= continuation {
		buf = append(buf, byte((continuation|(u&chunkMask))+charOffset))
		u >>= chunkBits
	}
	return append(buf, byte(u+charOffset))
}

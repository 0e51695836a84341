package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidTargetBand(t *testing.T) {
	cases := []struct {
		band float64
		ok   bool
	}{
		{0, true},
		{6.5, true},
		{9, true},
		{-0.5, false},
		{9.5, false},
		{1000, false},
		{math.NaN(), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, ValidTargetBand(tc.band), "band %v", tc.band)
	}
}

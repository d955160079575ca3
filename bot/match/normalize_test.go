package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Check order status", "check order status"},
		{"  Please   check order status  ", "check order status"},
		{"I would like to book an appointment", "book an appointment"},
		{"Can you please cancel my booking", "cancel my booking"},
		{"я хочу записатися", "записатися"},
		{"me gustaría reservar", "reservar"},
		{"PLEASE", ""},
		{"", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Normalize(tc.in), "input %q", tc.in)
	}
}

func TestNormalizeLeavesEmbeddedFillersAlone(t *testing.T) {
	// Fillers only strip on whole-word boundaries, never inside words.
	cases := []struct {
		in   string
		want string
	}{
		{"pleased to meet you", "pleased to meet you"},
		{"it is bitterly cold", "it is bitterly cold"},
		{"requiero ayuda", "requiero ayuda"},
		{"kindly pleased", "pleased"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Normalize(tc.in), "input %q", tc.in)
	}
}

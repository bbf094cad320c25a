package valkey

import (
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"
)

func TestStateValue(t *testing.T) {
	cases := []struct {
		state gobreaker.State
		want  float64
	}{
		{gobreaker.StateClosed, 0},
		{gobreaker.StateHalfOpen, 1},
		{gobreaker.StateOpen, 2},
	}
	for _, tc := range cases {
		if got := stateValue(tc.state); got != tc.want {
			t.Errorf("stateValue(%s) = %v, want %v", tc.state, got, tc.want)
		}
	}
}

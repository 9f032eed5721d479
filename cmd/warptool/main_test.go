package main

import (
	"testing"

	"github.com/Faultbox/mpcdi-warp/pkg/math"
)

func TestParseVec(t *testing.T) {
	tests := []struct {
		in      string
		want    math.Vec3
		wantErr bool
	}{
		{"0,0,0", math.Vec3{}, false},
		{"1.5, -2, 170", math.Vec3{X: 1.5, Y: -2, Z: 170}, false},
		{"1,2", math.Vec3{}, true},
		{"a,b,c", math.Vec3{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseVec(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

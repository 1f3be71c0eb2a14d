package main

import (
	"strings"
	"testing"
)

func TestBrightnessFlagRange(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"estimate over range", []string{
			"matrixforge", "estimate", "--board", "uno",
			"--width", "4", "--height", "4", "--brightness", "300",
		}},
		{"estimate negative", []string{
			"matrixforge", "estimate", "--board", "uno",
			"--width", "4", "--height", "4", "--brightness", "-1",
		}},
		{"wiring over range", []string{
			"matrixforge", "wiring", "--board", "uno",
			"--width", "4", "--height", "4", "--brightness", "256",
		}},
		{"firmware over range", []string{
			"matrixforge", "firmware", "--board", "uno",
			"--width", "4", "--height", "4", "--brightness", "999",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newApp().Run(tt.args)
			if err == nil {
				t.Fatal("out-of-range brightness accepted")
			}
			if !strings.Contains(err.Error(), "brightness") {
				t.Errorf("error %q does not name brightness", err)
			}
		})
	}
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("Default config is invalid: %v", err)
	}
	if got := c.Height(); got != 480 {
		t.Errorf("Height() = %d, want 480", got)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		mutate    func(c *Config)
		wantField string
	}{
		{mutate: func(c *Config) { c.Samples = 0 }, wantField: "samples"},
		{mutate: func(c *Config) { c.Width = 0 }, wantField: "width"},
		{mutate: func(c *Config) { c.Width = 1 }, wantField: "width"},
		{mutate: func(c *Config) { c.Model = 10 }, wantField: "model"},
		{mutate: func(c *Config) { c.Model = -1 }, wantField: "model"},
		{mutate: func(c *Config) { c.Output = "" }, wantField: "output"},
		{mutate: func(c *Config) { c.BandRows = 0 }, wantField: "band-rows"},
		{mutate: func(c *Config) { c.Parallelism = 0 }, wantField: "parallelism"},
		{mutate: func(c *Config) { c.RouletteDepth = -1 }, wantField: "roulette-depth"},
		{mutate: func(c *Config) { c.MaxDepth = -1 }, wantField: "max-depth"},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("Case %d", i), func(t *testing.T) {
			c := Default()
			tc.mutate(&c)

			err := c.Validate()
			var cfgErr *Error
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() = %v, want *Error", err)
			}
			if cfgErr.Field != tc.wantField {
				t.Errorf("Error field = %q, want %q", cfgErr.Field, tc.wantField)
			}
			if !strings.Contains(err.Error(), tc.wantField) {
				t.Errorf("Error text %q does not name %q", err.Error(), tc.wantField)
			}
		})
	}
}

func TestHeight(t *testing.T) {
	cases := []struct {
		width, want int
	}{
		{width: 640, want: 480},
		{width: 320, want: 240},
		{width: 100, want: 75},
		{width: 2, want: 1},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("Case %d", i), func(t *testing.T) {
			c := Config{Width: tc.width}
			if got := c.Height(); got != tc.want {
				t.Errorf("Height() with width %d = %d, want %d", tc.width, got, tc.want)
			}
		})
	}
}

func TestErrorDetail(t *testing.T) {
	c := Default()
	c.Samples = 0
	err := c.Validate()

	// %+v includes the frame where the error was created.
	detail := fmt.Sprintf("%+v", err)
	if !strings.Contains(detail, "config.go") {
		t.Errorf("Detailed error %q lacks a source frame", detail)
	}
}

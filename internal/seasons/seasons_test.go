package seasons

import (
	"strings"
	"testing"
	"time"
)

func TestGetSeason(t *testing.T) {
	tests := []struct {
		month    time.Month
		expected Season
	}{
		{time.January, Winter},
		{time.February, Winter},
		{time.March, Spring},
		{time.April, Spring},
		{time.May, Spring},
		{time.June, Summer},
		{time.July, Summer},
		{time.August, Summer},
		{time.September, Fall},
		{time.October, Fall},
		{time.November, Fall},
		{time.December, Winter},
	}

	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			date := time.Date(2024, tt.month, 15, 0, 0, 0, 0, time.UTC)
			if got := GetSeason(date); got != tt.expected {
				t.Errorf("GetSeason(%v) = %v, want %v", date, got, tt.expected)
			}
		})
	}
}

func TestGetColorScheme(t *testing.T) {
	for _, season := range []Season{Fall, Winter, Spring, Summer} {
		colors := GetColorScheme(season)
		if colors.C50 == "" || colors.C500 == "" || colors.C900 == "" {
			t.Errorf("GetColorScheme(%v) returned empty colors", season)
		}
	}
	if GetColorScheme("monsoon") != GetColorScheme(Fall) {
		t.Error("unknown season should fall back to fall colors")
	}
}

func TestStyleCSSVars(t *testing.T) {
	style := StyleFor(time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC))
	if style.Season != Spring {
		t.Fatalf("expected spring style, got %v", style.Season)
	}

	css := string(style.CSSVars())
	for _, want := range []string{"--primary-50: #f0fdf4;", "--primary-500: #22c55e;", "--primary-900: #14532d;"} {
		if !strings.Contains(css, want) {
			t.Errorf("CSSVars() = %q, missing %q", css, want)
		}
	}
}

func TestGetCurrentStyle(t *testing.T) {
	style := GetCurrentStyle()
	if style.Colors.C50 == "" || style.Colors.C500 == "" || style.Colors.C900 == "" {
		t.Errorf("GetCurrentStyle() returned empty colors")
	}
}

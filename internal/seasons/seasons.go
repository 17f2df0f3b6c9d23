// Package seasons picks the site's primary palette from the time of year.
package seasons

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

type Season string

const (
	Fall   Season = "fall"
	Winter Season = "winter"
	Spring Season = "spring"
	Summer Season = "summer"
)

// ColorScheme is a primary palette from lightest (C50) to darkest (C900).
type ColorScheme struct {
	C50  string
	C100 string
	C200 string
	C300 string
	C400 string
	C500 string
	C600 string
	C700 string
	C800 string
	C900 string
}

var palettes = map[Season]ColorScheme{
	// leaf orange
	Fall: {
		C50: "#fff7ed", C100: "#ffedd5", C200: "#fed7aa", C300: "#fdba74", C400: "#fb923c",
		C500: "#f97316", C600: "#ea580c", C700: "#c2410c", C800: "#9a3412", C900: "#7c2d12",
	},
	// ice blue
	Winter: {
		C50: "#f0f9ff", C100: "#e0f2fe", C200: "#bae6fd", C300: "#7dd3fc", C400: "#38bdf8",
		C500: "#0ea5e9", C600: "#0284c7", C700: "#0369a1", C800: "#075985", C900: "#0c4a6e",
	},
	// herb green
	Spring: {
		C50: "#f0fdf4", C100: "#dcfce7", C200: "#bbf7d0", C300: "#86efac", C400: "#4ade80",
		C500: "#22c55e", C600: "#16a34a", C700: "#15803d", C800: "#166534", C900: "#14532d",
	},
	// ripe fruit yellow
	Summer: {
		C50: "#fefce8", C100: "#fef9c3", C200: "#fef08a", C300: "#fde047", C400: "#facc15",
		C500: "#eab308", C600: "#ca8a04", C700: "#a16207", C800: "#854d0e", C900: "#713f12",
	},
}

// GetSeason uses meteorological seasons for the northern hemisphere.
func GetSeason(t time.Time) Season {
	switch t.Month() {
	case time.December, time.January, time.February:
		return Winter
	case time.March, time.April, time.May:
		return Spring
	case time.June, time.July, time.August:
		return Summer
	default:
		return Fall
	}
}

// GetColorScheme falls back to the fall palette for unknown seasons.
func GetColorScheme(season Season) ColorScheme {
	if c, ok := palettes[season]; ok {
		return c
	}
	return palettes[Fall]
}

// Style is what page templates need to paint themselves for a season.
type Style struct {
	Season Season
	Colors ColorScheme
}

func StyleFor(t time.Time) Style {
	s := GetSeason(t)
	return Style{Season: s, Colors: GetColorScheme(s)}
}

func GetCurrentStyle() Style {
	return StyleFor(time.Now())
}

// CSSVars renders the palette as --primary-* custom properties for a :root rule.
func (s Style) CSSVars() template.CSS {
	c := s.Colors
	shades := []struct {
		n     int
		value string
	}{
		{50, c.C50}, {100, c.C100}, {200, c.C200}, {300, c.C300}, {400, c.C400},
		{500, c.C500}, {600, c.C600}, {700, c.C700}, {800, c.C800}, {900, c.C900},
	}
	var b strings.Builder
	for _, sh := range shades {
		fmt.Fprintf(&b, "--primary-%d: %s; ", sh.n, sh.value)
	}
	return template.CSS(strings.TrimSpace(b.String()))
}

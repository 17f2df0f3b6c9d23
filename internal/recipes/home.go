package recipes

import "strings"

type Testimonial struct {
	Name   string
	Handle string
	Rating int
	Text   string
}

func (t Testimonial) Stars() string {
	return strings.Repeat("★", t.Rating)
}

var testimonials = []Testimonial{
	{
		Name:   "Emma Watson",
		Handle: "@emma_w",
		Rating: 5,
		Text:   "Zest has transformed the way I cook at home. The recipes are easy to follow and absolutely delicious!",
	},
	{
		Name:   "Liam Anderson",
		Handle: "@liam_anderson",
		Rating: 5,
		Text:   "I love how organized and inspiring this platform is. It feels like I have a personal chef guiding me every day!",
	},
}

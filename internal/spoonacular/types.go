package spoonacular

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Summary is one search hit. Fields we do not model are kept in Extra and
// written back out unchanged.
type Summary struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Image string `json:"image"`

	Extra map[string]json.RawMessage `json:"-"`
}

type summaryFields Summary

func (s *Summary) UnmarshalJSON(b []byte) error {
	var fields summaryFields
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	delete(all, "id")
	delete(all, "title")
	delete(all, "image")
	if len(all) == 0 {
		all = nil
	}
	*s = Summary(fields)
	s.Extra = all
	return nil
}

func (s Summary) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extra)+3)
	for k, v := range s.Extra {
		out[k] = v
	}
	out["id"] = s.ID
	out["title"] = s.Title
	out["image"] = s.Image
	return json.Marshal(out)
}

type SearchResult struct {
	Results      []Summary `json:"results"`
	Offset       int       `json:"offset"`
	Number       int       `json:"number"`
	TotalResults int       `json:"totalResults"`
}

type Detail struct {
	ID                  int          `json:"id"`
	Title               string       `json:"title"`
	Image               string       `json:"image,omitempty"`
	ReadyInMinutes      int          `json:"readyInMinutes,omitempty"`
	Servings            int          `json:"servings,omitempty"`
	SourceURL           string       `json:"sourceUrl,omitempty"`
	ExtendedIngredients []Ingredient `json:"extendedIngredients"`
	Instructions        string       `json:"instructions"`
	Nutrition           *Nutrition   `json:"nutrition,omitempty"`
}

type Ingredient struct {
	ID     int     `json:"id"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
	Name   string  `json:"name"`
}

// Line renders "amount unit name", dropping an empty unit.
func (i Ingredient) Line() string {
	return joinNonEmpty(formatAmount(i.Amount), i.Unit, i.Name)
}

type Nutrition struct {
	Nutrients []Nutrient `json:"nutrients"`
}

// Nutrient carries both spellings of its label; the API sends name, older
// payloads send title.
type Nutrient struct {
	Name   string  `json:"name,omitempty"`
	Title  string  `json:"title,omitempty"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

func (n Nutrient) Label() string {
	if n.Title != "" {
		return n.Title
	}
	return n.Name
}

// Line renders "title: amount unit".
func (n Nutrient) Line() string {
	return n.Label() + ": " + joinNonEmpty(formatAmount(n.Amount), n.Unit)
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

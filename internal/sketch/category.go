package sketch

import (
	"errors"
	"fmt"
	"strings"
)

// Category is one label of the closed vocabulary of recognisable objects.
// The zero value is Unclassified.
type Category int

const (
	Unclassified Category = iota
	Sun
	Moon
	House
	Tree
	Car
	Person
	Cat
	Dog
	Flower
	Star
	Heart
	Balloon
	Fish
	Butterfly
	Boat

	// NumCategories sizes Category-indexed lookup tables.
	NumCategories
)

// ErrUnknownCategory is returned when a name is not in the vocabulary.
var ErrUnknownCategory = errors.New("unknown category")

var categoryLabels = [NumCategories]string{
	Unclassified: "unclassified",
	Sun:          "sun",
	Moon:         "moon",
	House:        "house",
	Tree:         "tree",
	Car:          "car",
	Person:       "person",
	Cat:          "cat",
	Dog:          "dog",
	Flower:       "flower",
	Star:         "star",
	Heart:        "heart",
	Balloon:      "balloon",
	Fish:         "fish",
	Butterfly:    "butterfly",
	Boat:         "boat",
}

// Spanish names as offered to the user by the first version of the app.
var spanishLabels = [NumCategories]string{
	Sun:       "sol",
	Moon:      "luna",
	House:     "casa",
	Tree:      "árbol",
	Car:       "coche",
	Person:    "persona",
	Cat:       "gato",
	Dog:       "perro",
	Flower:    "flor",
	Star:      "estrella",
	Heart:     "corazón",
	Balloon:   "globo",
	Fish:      "pez",
	Butterfly: "mariposa",
	Boat:      "barco",
}

var categoryByName = func() map[string]Category {
	m := make(map[string]Category, 3*int(NumCategories))
	for _, c := range Categories() {
		m[categoryLabels[c]] = c
		m[spanishLabels[c]] = c
	}
	// unaccented spellings people actually type
	m["arbol"] = Tree
	m["corazon"] = Heart
	return m
}()

// Categories returns the recognisable categories in vocabulary order,
// excluding Unclassified.
func Categories() []Category {
	out := make([]Category, 0, NumCategories-1)
	for c := Sun; c < NumCategories; c++ {
		out = append(out, c)
	}
	return out
}

// Valid reports whether c is one of the recognisable categories.
func (c Category) Valid() bool {
	return c > Unclassified && c < NumCategories
}

func (c Category) String() string {
	if c < Unclassified || c >= NumCategories {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryLabels[c]
}

// Spanish returns the Spanish label, or "" for Unclassified.
func (c Category) Spanish() string {
	if !c.Valid() {
		return ""
	}
	return spanishLabels[c]
}

// ParseCategory resolves an English or Spanish label, ignoring case and
// surrounding space.
func ParseCategory(name string) (Category, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if c, ok := categoryByName[key]; ok {
		return c, nil
	}
	return Unclassified, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

func (c Category) MarshalText() ([]byte, error) {
	if c < Unclassified || c >= NumCategories {
		return nil, fmt.Errorf("invalid category %d", int(c))
	}
	return []byte(categoryLabels[c]), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	if s == "" || s == categoryLabels[Unclassified] {
		*c = Unclassified
		return nil
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

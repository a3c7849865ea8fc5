package core

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// MealType tags a note with the meal it belongs to. The numeric values are
// persisted and must not change.
type MealType int

const (
	Breakfast       MealType = 1
	SecondBreakfast MealType = 2
	Lunch           MealType = 3
	AfternoonSnack  MealType = 4
	Dinner          MealType = 5
)

type mealTypeInfo struct {
	rank int
	name string
}

// Rank decides the order meals appear in a day. It is kept apart from the
// stored value so that a new meal can be slotted in without renumbering.
var mealTypes = map[MealType]mealTypeInfo{
	Breakfast:       {rank: 10, name: "Breakfast"},
	SecondBreakfast: {rank: 20, name: "Second breakfast"},
	Lunch:           {rank: 30, name: "Lunch"},
	AfternoonSnack:  {rank: 40, name: "Afternoon snack"},
	Dinner:          {rank: 50, name: "Dinner"},
}

// Valid reports whether m is one of the defined meal types.
func (m MealType) Valid() bool {
	_, ok := mealTypes[m]
	return ok
}

// Rank returns the ordering key of m. Unknown values sort after every known one.
func (m MealType) Rank() int {
	if info, ok := mealTypes[m]; ok {
		return info.rank
	}
	return math.MaxInt
}

// String returns the human-readable meal name.
func (m MealType) String() string {
	if info, ok := mealTypes[m]; ok {
		return info.name
	}
	return fmt.Sprintf("MealType(%d)", int(m))
}

// CompareMealTypes orders meal types by rank, then by stored value.
func CompareMealTypes(a, b MealType) int {
	if c := cmp.Compare(a.Rank(), b.Rank()); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

// AllMealTypes returns every defined meal type in rank order.
func AllMealTypes() []MealType {
	all := make([]MealType, 0, len(mealTypes))
	for m := range mealTypes {
		all = append(all, m)
	}
	slices.SortFunc(all, CompareMealTypes)
	return all
}

// ParseMealType accepts either the stored number or the meal name
// (case, spaces, dashes and underscores ignored).
func ParseMealType(s string) (MealType, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		m := MealType(n)
		if !m.Valid() {
			return 0, fmt.Errorf("unknown meal type %d", n)
		}
		return m, nil
	}
	key := normalizeMealName(s)
	for m, info := range mealTypes {
		if normalizeMealName(info.name) == key {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown meal type %q", s)
}

func normalizeMealName(s string) string {
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(s))
}

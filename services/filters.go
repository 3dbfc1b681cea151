package services

import (
	"fmt"

	"home-rush/config"
	"home-rush/models"
)

// Predicate reports whether an offer satisfies one criterion.
type Predicate func(models.HousingOffer) bool

// Filter is a named Predicate, e.g. "rent_min".
type Filter struct {
	Name  string
	Match Predicate
}

// FilterSet is an ordered list of filters combined with AND.
type FilterSet []Filter

// numericFields maps config field names to offer accessors.
var numericFields = map[string]func(models.HousingOffer) float64{
	"rent":       func(o models.HousingOffer) float64 { return o.MonthlyPrice },
	"total_rent": func(o models.HousingOffer) float64 { return o.TotalPrice },
	"floor":      func(o models.HousingOffer) float64 { return float64(o.Address.Floor) },
	"size":       func(o models.HousingOffer) float64 { return o.PropertyProfile.Size },
}

// BuildFilters turns the declarative filter config into a FilterSet.
// An unknown field name is a configuration error.
func BuildFilters(cfg config.FilterConfig) (FilterSet, error) {
	var fs FilterSet

	if len(cfg.Complexes) > 0 {
		allowed := make(map[string]struct{}, len(cfg.Complexes))
		for _, c := range cfg.Complexes {
			allowed[c] = struct{}{}
		}
		fs = append(fs, Filter{
			Name: "complexes",
			Match: func(o models.HousingOffer) bool {
				_, ok := allowed[o.Address.Street]
				return ok
			},
		})
	}

	for _, fb := range cfg.Fields {
		get, ok := numericFields[fb.Field]
		if !ok {
			return nil, fmt.Errorf("filters: unknown field %q", fb.Field)
		}

		if fb.Eq != nil {
			want := *fb.Eq
			fs = append(fs, Filter{
				Name:  fb.Field + "_eq",
				Match: func(o models.HousingOffer) bool { return get(o) == want },
			})
		}
		if fb.Min != nil {
			lo := *fb.Min
			fs = append(fs, Filter{
				Name:  fb.Field + "_min",
				Match: func(o models.HousingOffer) bool { return get(o) >= lo },
			})
		}
		if fb.Max != nil {
			hi := *fb.Max
			fs = append(fs, Filter{
				Name:  fb.Field + "_max",
				Match: func(o models.HousingOffer) bool { return get(o) <= hi },
			})
		}
	}

	return fs, nil
}

// Names returns the filter names in evaluation order.
func (fs FilterSet) Names() []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name
	}
	return names
}

// Match reports whether offer is unresponded and passes every filter.
// Evaluation stops at the first failing filter.
func (fs FilterSet) Match(offer models.HousingOffer) bool {
	if offer.Responded {
		return false
	}
	for _, f := range fs {
		if !f.eval(offer) {
			return false
		}
	}
	return true
}

// eval treats a panicking predicate as a non-match.
func (f Filter) eval(offer models.HousingOffer) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return f.Match(offer)
}

// ApplyFilters returns the items whose offer matches fs, in input order.
func ApplyFilters[T any](items []T, offerOf func(T) *models.HousingOffer, fs FilterSet) []T {
	var result []T
	for _, item := range items {
		offer := offerOf(item)
		if offer == nil {
			continue
		}
		if fs.Match(*offer) {
			result = append(result, item)
		}
	}
	return result
}

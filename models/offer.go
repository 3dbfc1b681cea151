package models

import "fmt"

// Address is the location part of a housing offer.
type Address struct {
	Street string
	Number string
	Floor  int
	City   string
}

func (a Address) String() string {
	return fmt.Sprintf("Street: %s | Number: %s | Floor: %d | City: %s",
		a.Street, a.Number, a.Floor, a.City)
}

// PropertyProfile describes the kind and size of the dwelling.
type PropertyProfile struct {
	PropertyType string
	Size         float64
}

func (p PropertyProfile) String() string {
	return fmt.Sprintf("Type: %s | Size: %.1f m²", p.PropertyType, p.Size)
}

// Property types recognised by the listing parser.
const (
	PropertyStudio    = "Studio"
	PropertyApartment = "Apartment"
	PropertyRoom      = "Room"

	defaultPropertyType = "apartment"
)

// HousingOffer is one listing as parsed from the page text.
type HousingOffer struct {
	MonthlyPrice    float64
	TotalPrice      float64
	Address         Address
	PropertyProfile PropertyProfile
	Responded       bool
}

// NewHousingOffer returns an offer with every field at its default.
func NewHousingOffer() HousingOffer {
	return HousingOffer{
		Address:         Address{Number: "0"},
		PropertyProfile: PropertyProfile{PropertyType: defaultPropertyType},
	}
}

func (o HousingOffer) String() string {
	return fmt.Sprintf("Monthly: %.2f | Total: %.2f | Address: [%s] | Property: [%s] | Responded: %t",
		o.MonthlyPrice, o.TotalPrice, o.Address, o.PropertyProfile, o.Responded)
}

package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"home-rush/models"
	"home-rush/utils"
)

const (
	currencyMarker = "€"
	bulletMarker   = "•"
	areaMarker     = "m²"
)

var (
	// amountRegexp captures a Dutch-formatted amount: "1.234", "654,32", "850".
	amountRegexp = regexp.MustCompile(`\d[\d.]*(?:,\d+)?`)
	// sizeRegexp captures a surface with an optional decimal part.
	sizeRegexp = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	// digitsRegexp captures the first digit run, e.g. the 3 in "3e verdieping".
	digitsRegexp = regexp.MustCompile(`\d+`)

	perMonthMarkers  = []string{"p/m", "p.m", "per maand", "per month"}
	totalRentLabels  = []string{"Totale huurprijs:", "Total rental price:"}
	floorMarkers     = []string{"verdieping", "floor"}
	floorLabels      = []string{"e verdieping", "verdieping", "floor"}
	respondedMarkers = []string{"responded", "gereageerd"}
)

// addressIndex is the position of the "street number" line in a listing
// block. It depends on the site's rendering order.
const addressIndex = 3

// ListingParser turns the visible text of one listing element into a
// HousingOffer. Parse never fails: fields it cannot read keep their
// defaults and the problem is logged.
type ListingParser struct {
	logger *utils.Logger
}

// NewListingParser creates a ListingParser with the given logger.
func NewListingParser(logger *utils.Logger) *ListingParser {
	return &ListingParser{logger: logger}
}

// Parse classifies each segment of raw by the first rule it matches and
// fills the offer accordingly.
func (p *ListingParser) Parse(raw string) models.HousingOffer {
	offer := models.NewHousingOffer()

	for index, segment := range Segments(raw) {
		switch {
		case strings.Contains(segment, currencyMarker) && containsAny(strings.ToLower(segment), perMonthMarkers):
			if v, err := parseAmount(segment); err != nil {
				p.logger.Warn("[parser] Failed to convert monthly price %q: %v", segment, err)
			} else {
				offer.MonthlyPrice = v
			}

		case containsAny(segment, totalRentLabels):
			if v, err := parseAmount(stripAll(segment, totalRentLabels)); err != nil {
				p.logger.Warn("[parser] Failed to convert total price %q: %v", segment, err)
			} else {
				offer.TotalPrice = v
			}

		case index == addressIndex && !hasAttributeMarker(segment):
			parts := strings.Fields(segment)
			if len(parts) > 1 {
				offer.Address.Number = parts[len(parts)-1]
				offer.Address.Street = strings.Join(parts[:len(parts)-1], " ")
			}

		case len(strings.Fields(segment)) == 1 && !hasAttributeMarker(segment):
			offer.Address.City = segment

		case strings.Contains(segment, bulletMarker):
			p.parseAttributes(segment, &offer)

		case strings.Contains(segment, areaMarker):
			if v, err := parseSize(segment); err != nil {
				p.logger.Warn("[parser] Failed to convert size %q: %v", segment, err)
			} else {
				offer.PropertyProfile.Size = v
			}

		case containsAny(strings.ToLower(segment), respondedMarkers):
			offer.Responded = true
		}
	}

	return offer
}

// parseAttributes reads a bullet-packed segment such as
// "•Apartment•3e verdieping•".
func (p *ListingParser) parseAttributes(segment string, offer *models.HousingOffer) {
	for _, sub := range strings.Split(segment, bulletMarker) {
		lower := strings.ToLower(strings.TrimSpace(sub))
		if lower == "" {
			continue
		}

		switch {
		case strings.Contains(lower, "studio"):
			offer.PropertyProfile.PropertyType = models.PropertyStudio
		case strings.Contains(lower, "apartment"), strings.Contains(lower, "appartement"):
			offer.PropertyProfile.PropertyType = models.PropertyApartment
		case strings.Contains(lower, "room"), strings.Contains(lower, "kamer"):
			offer.PropertyProfile.PropertyType = models.PropertyRoom
		case containsAny(lower, floorMarkers):
			digits := digitsRegexp.FindString(stripAll(lower, floorLabels))
			if digits == "" {
				continue
			}
			floor, err := strconv.Atoi(digits)
			if err != nil {
				p.logger.Warn("[parser] Failed to convert floor %q: %v", sub, err)
				continue
			}
			offer.Address.Floor = floor
		}
	}
}

// Segments normalises raw listing text into its ordered, trimmed,
// non-empty line segments. Blank lines never produce a segment.
func Segments(raw string) []string {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), "\r\n", "\n")
	if raw == "" {
		return nil
	}

	lines := strings.Split(raw, "\n")
	segments := make([]string, 0, len(lines))
	for _, line := range lines {
		if s := strings.TrimSpace(line); s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// parseAmount reads the first amount in s using Dutch separators:
// "." groups thousands, "," starts the decimals.
func parseAmount(s string) (float64, error) {
	match := amountRegexp.FindString(s)
	if match == "" {
		return 0, fmt.Errorf("no amount in %q", s)
	}
	match = strings.ReplaceAll(match, ".", "")
	match = strings.Replace(match, ",", ".", 1)
	return strconv.ParseFloat(match, 64)
}

func parseSize(s string) (float64, error) {
	match := sizeRegexp.FindString(strings.ReplaceAll(s, areaMarker, ""))
	if match == "" {
		return 0, fmt.Errorf("no size in %q", s)
	}
	return strconv.ParseFloat(strings.Replace(match, ",", ".", 1), 64)
}

func hasAttributeMarker(s string) bool {
	return strings.Contains(s, currencyMarker) ||
		strings.Contains(s, bulletMarker) ||
		strings.Contains(s, areaMarker)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func stripAll(s string, subs []string) string {
	for _, sub := range subs {
		s = strings.ReplaceAll(s, sub, "")
	}
	return s
}

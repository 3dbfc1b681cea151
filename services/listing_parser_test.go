package services

import (
	"io"
	"strings"
	"testing"

	"home-rush/models"
	"home-rush/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLoggerTo(io.Discard) }

func TestParseRoundTrip(t *testing.T) {
	p := NewListingParser(newTestLogger())

	raw := strings.Join([]string{
		"€1.234 p/m",
		"Kanaalweg 12",
		"Delft",
		"•Apartment•3e verdieping•",
		"55 m²",
	}, "\n")

	offer := p.Parse(raw)

	if offer.MonthlyPrice != 1234.0 {
		t.Errorf("MonthlyPrice: got %.2f, want 1234.00", offer.MonthlyPrice)
	}
	if offer.PropertyProfile.PropertyType != models.PropertyApartment {
		t.Errorf("PropertyType: got %q, want %q", offer.PropertyProfile.PropertyType, models.PropertyApartment)
	}
	if offer.Address.Floor != 3 {
		t.Errorf("Floor: got %d, want 3", offer.Address.Floor)
	}
	if offer.PropertyProfile.Size != 55.0 {
		t.Errorf("Size: got %.2f, want 55.00", offer.PropertyProfile.Size)
	}
	if offer.Address.City != "Delft" {
		t.Errorf("City: got %q, want Delft", offer.Address.City)
	}
}

func TestParsePlazaLayout(t *testing.T) {
	p := NewListingParser(newTestLogger())

	raw := `
€ 654,32 p/m
Totale huurprijs: € 712,10
Direct te huur
Balthasar van der Polweg 311
Delft

•Studio•2e verdieping•
24,5 m²
`
	offer := p.Parse(raw)

	if offer.MonthlyPrice != 654.32 {
		t.Errorf("MonthlyPrice: got %.2f, want 654.32", offer.MonthlyPrice)
	}
	if offer.TotalPrice != 712.10 {
		t.Errorf("TotalPrice: got %.2f, want 712.10", offer.TotalPrice)
	}
	if offer.Address.Street != "Balthasar van der Polweg" || offer.Address.Number != "311" {
		t.Errorf("Address: got %q %q", offer.Address.Street, offer.Address.Number)
	}
	if offer.Address.City != "Delft" {
		t.Errorf("City: got %q, want Delft", offer.Address.City)
	}
	if offer.PropertyProfile.PropertyType != models.PropertyStudio {
		t.Errorf("PropertyType: got %q", offer.PropertyProfile.PropertyType)
	}
	if offer.Address.Floor != 2 {
		t.Errorf("Floor: got %d, want 2", offer.Address.Floor)
	}
	if offer.PropertyProfile.Size != 24.5 {
		t.Errorf("Size: got %.2f, want 24.50", offer.PropertyProfile.Size)
	}
	if offer.Responded {
		t.Error("Responded should be false")
	}
}

func TestParseIsTotal(t *testing.T) {
	p := NewListingParser(newTestLogger())
	want := models.NewHousingOffer()

	inputs := []string{
		"",
		"   \n\n  ",
		"Delft",
		"lorem ipsum dolor sit amet",
		"€ abc p/m\nTotale huurprijs: € ?\nfoo bar\n•\n m²",
	}

	for _, in := range inputs {
		got := p.Parse(in)
		if in == "Delft" {
			want.Address.City = "Delft"
		} else {
			want.Address.City = ""
		}
		if got != want {
			t.Errorf("Parse(%q) = %+v; want %+v", in, got, want)
		}
	}
}

func TestParseFailedFieldDoesNotAbort(t *testing.T) {
	p := NewListingParser(newTestLogger())

	raw := "€ onbekend p/m\nTotale huurprijs: € 900\nx y\nStationsplein 1\nLeiden\n•Room•\n18 m²"
	offer := p.Parse(raw)

	if offer.MonthlyPrice != 0 {
		t.Errorf("MonthlyPrice: got %.2f, want default 0", offer.MonthlyPrice)
	}
	if offer.TotalPrice != 900 {
		t.Errorf("TotalPrice: got %.2f, want 900", offer.TotalPrice)
	}
	if offer.PropertyProfile.PropertyType != models.PropertyRoom {
		t.Errorf("PropertyType: got %q, want Room", offer.PropertyProfile.PropertyType)
	}
	if offer.PropertyProfile.Size != 18 {
		t.Errorf("Size: got %.2f, want 18", offer.PropertyProfile.Size)
	}
}

func TestParseRespondedMarker(t *testing.T) {
	p := NewListingParser(newTestLogger())

	tests := []struct {
		raw  string
		want bool
	}{
		{"€ 700 p/m\nx\ny\nKanaalweg 4\nDelft\nYou have responded", true},
		{"€ 700 p/m\nx\ny\nKanaalweg 4\nDelft\nAl GEREAGEERD op deze woning", true},
		{"€ 700 p/m\nx\ny\nKanaalweg 4\nDelft\nReageer nu", false},
	}

	for _, tt := range tests {
		if got := p.Parse(tt.raw).Responded; got != tt.want {
			t.Errorf("Parse(%q).Responded = %t; want %t", tt.raw, got, tt.want)
		}
	}
}

func TestParseAttributes(t *testing.T) {
	p := NewListingParser(newTestLogger())

	tests := []struct {
		segment   string
		wantType  string
		wantFloor int
	}{
		{"•Studio•Begane grond•", models.PropertyStudio, 0},
		{"•Appartement•12e verdieping•", models.PropertyApartment, 12},
		{"•Kamer•1e verdieping•", models.PropertyRoom, 1},
		{"•Apartment•4th floor•", models.PropertyApartment, 4},
		{"•Woning•", "apartment", 0},
	}

	for _, tt := range tests {
		offer := p.Parse("a b\nc d\ne f\n" + tt.segment)
		if offer.PropertyProfile.PropertyType != tt.wantType {
			t.Errorf("%q: type got %q, want %q", tt.segment, offer.PropertyProfile.PropertyType, tt.wantType)
		}
		if offer.Address.Floor != tt.wantFloor {
			t.Errorf("%q: floor got %d, want %d", tt.segment, offer.Address.Floor, tt.wantFloor)
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{"€1.234 p/m", 1234, false},
		{"€ 654,32 p/m", 654.32, false},
		{"€ 1.050,00 per maand", 1050, false},
		{"€ 850,- p.m.", 850, false},
		{"€ p/m", 0, true},
	}

	for _, tt := range tests {
		got, err := parseAmount(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseAmount(%q) error = %v; wantErr %t", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseAmount(%q) = %.2f; want %.2f", tt.raw, got, tt.want)
		}
	}
}

func TestSegmentsCollapsesBlankLines(t *testing.T) {
	got := Segments("  a \r\n\r\n b\n\n\n c  ")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Segments: got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("segment %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseMonthlyMarkerIgnoresCase(t *testing.T) {
	p := NewListingParser(newTestLogger())

	for _, line := range []string{"€ 800 Per Maand", "€800 P/M", "€800 PER MONTH"} {
		offer := p.Parse(line)
		if offer.MonthlyPrice != 800 {
			t.Errorf("%q: MonthlyPrice got %.2f, want 800.00", line, offer.MonthlyPrice)
		}
	}
}

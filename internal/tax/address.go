package tax

import "github.com/noah-isme/backend-tax/internal/rating"

const (
	postcodeLen = 5
	plus4Len    = 4
)

// FormatPostcode splits a raw postal code into its clipped 5-character base
// and optional 4-character extension. The extension is populated only when
// the raw input is exactly base + separator + extension long, e.g.
// "11201-9876". Content is not validated; malformed input passes through
// truncated. Empty input yields two empty strings, and an empty extension
// always means "no extension".
func FormatPostcode(raw string) (string, string) {
	if raw == "" {
		return "", ""
	}
	base := raw
	if len(base) > postcodeLen {
		base = base[:postcodeLen]
	}
	var plus4 string
	if len(raw) == postcodeLen+plus4Len+1 {
		plus4 = raw[postcodeLen+1:]
	}
	return base, plus4
}

func buildAddress(a Address) *rating.Address {
	base, plus4 := FormatPostcode(a.Postcode)
	return &rating.Address{
		Line1:           a.Line1,
		Line2:           a.Line2,
		City:            a.City,
		StateOrProvince: a.State,
		PostalCode:      base,
		Plus4:           plus4,
		CountryCode:     a.Country,
	}
}

package models

// ComplianceRule is one row of the shipping restriction dataset. Blank text
// fields match any value; HSCode matches by prefix.
type ComplianceRule struct {
	OriginCountry         string   `json:"originCountry"`
	OriginCountryISO      string   `json:"originCountryIso"`
	DestinationCountry    string   `json:"country"`
	DestinationCountryISO string   `json:"countryIso"`
	Mode                  string   `json:"mode"`
	PackageType           string   `json:"packageType"`
	ProductDescription    string   `json:"productDescription"`
	HSCode                string   `json:"hsCode"`
	MaxWeightKgPerPackage *float64 `json:"maxWeightKgPerPackage,omitempty"`
	MaxTotalWeightKg      *float64 `json:"maxTotalWeightKg,omitempty"`
	Restricted            bool     `json:"restricted"`
	RestrictedDetails     string   `json:"restrictedDetails,omitempty"`
	Banned                bool     `json:"banned"`
	BannedDetails         string   `json:"bannedDetails,omitempty"`
	PackingNotes          string   `json:"packingNotes,omitempty"`
}

package models

import (
	"strings"
	"time"
)

const (
	PartyRoleShipper   = "shipper"
	PartyRoleConsignee = "consignee"
)

// ShipmentDetail is the data declared by the shipper on the pre-clearance form.
type ShipmentDetail struct {
	Shipment Shipment  `json:"shipment"`
	Parties  []Party   `json:"parties"`
	Packages []Package `json:"packages"`
	Items    []Item    `json:"items"`
}

type Shipment struct {
	ID           string    `json:"id" db:"id"`
	Mode         string    `json:"mode" db:"mode"`
	CustomsValue *float64  `json:"customsValue,omitempty" db:"customs_value"`
	Currency     string    `json:"currency" db:"currency"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

type Party struct {
	Role        string `json:"role" db:"role"`
	Company     string `json:"company" db:"company"`
	ContactName string `json:"contactName" db:"contact_name"`
	Address     string `json:"address" db:"address"`
	City        string `json:"city" db:"city"`
	Country     string `json:"country" db:"country"`
}

type Package struct {
	WeightKg *float64 `json:"weightKg,omitempty" db:"weight_kg"`
	LengthCm *float64 `json:"lengthCm,omitempty" db:"length_cm"`
	WidthCm  *float64 `json:"widthCm,omitempty" db:"width_cm"`
	HeightCm *float64 `json:"heightCm,omitempty" db:"height_cm"`
	Type     string   `json:"type" db:"package_type"`
}

type Item struct {
	Name          string   `json:"name" db:"name"`
	Description   string   `json:"description" db:"description"`
	Category      string   `json:"category" db:"category"`
	HSCode        string   `json:"hsCode" db:"hs_code"`
	Quantity      *float64 `json:"quantity,omitempty" db:"quantity"`
	UnitPrice     *float64 `json:"unitPrice,omitempty" db:"unit_price"`
	TotalValue    *float64 `json:"totalValue,omitempty" db:"total_value"`
	OriginCountry string   `json:"originCountry" db:"origin_country"`
}

// Party returns the first party with the given role, or nil.
func (s *ShipmentDetail) Party(role string) *Party {
	for i := range s.Parties {
		if strings.EqualFold(s.Parties[i].Role, role) {
			return &s.Parties[i]
		}
	}
	return nil
}

func (s *ShipmentDetail) Shipper() *Party {
	return s.Party(PartyRoleShipper)
}

func (s *ShipmentDetail) Consignee() *Party {
	return s.Party(PartyRoleConsignee)
}

func (s *ShipmentDetail) FirstPackage() *Package {
	if len(s.Packages) == 0 {
		return nil
	}
	return &s.Packages[0]
}

func (s *ShipmentDetail) FirstItem() *Item {
	if len(s.Items) == 0 {
		return nil
	}
	return &s.Items[0]
}

// TotalWeightKg sums the declared package weights. The boolean is false
// when no package declares a weight.
func (s *ShipmentDetail) TotalWeightKg() (float64, bool) {
	var total float64
	found := false
	for _, p := range s.Packages {
		if p.WeightKg == nil {
			continue
		}
		total += *p.WeightKg
		found = true
	}
	return total, found
}

// ProductText is the description of the first item, falling back to its name.
func (s *ShipmentDetail) ProductText() string {
	item := s.FirstItem()
	if item == nil {
		return ""
	}
	if strings.TrimSpace(item.Description) != "" {
		return item.Description
	}
	return item.Name
}

package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RawSignalSnapshot is everything a data provider knows about one registration
// at one point in time. Every signal is optional; scoring treats nil as unknown.
type RawSignalSnapshot struct {
	RegistrationNumber string `json:"registration_number"`
	Brand              string `json:"brand"`
	Model              string `json:"model"`
	Year               int    `json:"year"`
	Mileage            int    `json:"mileage"`

	FuelType   *string `json:"fuel_type,omitempty"`
	HorsePower *int    `json:"horse_power,omitempty"`
	Color      *string `json:"color,omitempty"`

	InsuranceIncidents  *int       `json:"insurance_incidents,omitempty"`
	ManufacturerRecalls *int       `json:"manufacturer_recalls,omitempty"`
	LastInspectionDate  *time.Time `json:"last_inspection_date,omitempty"`
	InspectionPassed    *bool      `json:"inspection_passed,omitempty"`

	// Ownership
	NumberOfOwners        *int       `json:"number_of_owners,omitempty"`
	IsCompanyOwned        *bool      `json:"is_company_owned,omitempty"`
	FirstRegistrationDate *time.Time `json:"first_registration_date,omitempty"`
	IsImported            *bool      `json:"is_imported,omitempty"`

	// Finance
	OutstandingDebtSEK *decimal.Decimal `json:"outstanding_debt_sek,omitempty"`
	TaxDebtSEK         *decimal.Decimal `json:"tax_debt_sek,omitempty"`
	HasPurchaseBlock   *bool            `json:"has_purchase_block,omitempty"`

	// Environment
	EuroClass          *string          `json:"euro_class,omitempty"`
	CO2EmissionsGPerKm *int             `json:"co2_emissions_g_per_km,omitempty"`
	AnnualTaxSEK       *decimal.Decimal `json:"annual_tax_sek,omitempty"`
	BonusMalusApplies  *bool            `json:"bonus_malus_applies,omitempty"`

	// Market
	MarketValueSEK          *decimal.Decimal `json:"market_value_sek,omitempty"`
	AverageMarketPriceSEK   *decimal.Decimal `json:"average_market_price_sek,omitempty"`
	DepreciationRatePercent *decimal.Decimal `json:"depreciation_rate_percent,omitempty"`

	// Service history
	ServiceCount           *int       `json:"service_count,omitempty"`
	AuthorizedServiceUsed  *bool      `json:"authorized_service_used,omitempty"`
	LastServiceDate        *time.Time `json:"last_service_date,omitempty"`
	CompleteServiceHistory *bool      `json:"complete_service_history,omitempty"`

	// Theft and security
	TheftRiskCategory *string `json:"theft_risk_category,omitempty"`
	EuroNCAPRating    *int    `json:"euro_ncap_rating,omitempty"`
	HasAlarmSystem    *bool   `json:"has_alarm_system,omitempty"`

	// Reliability
	ReliabilityRating    *decimal.Decimal `json:"reliability_rating,omitempty"`
	CommonIssuesCount    *int             `json:"common_issues_count,omitempty"`
	AverageRepairCostSEK *decimal.Decimal `json:"average_repair_cost_sek,omitempty"`

	// Drill-down lists
	Inspections              []InspectionRecord        `json:"inspections,omitempty"`
	ServiceRecords           []ServiceRecord           `json:"service_records,omitempty"`
	OwnerRecords             []OwnerRecord             `json:"owner_records,omitempty"`
	InsuranceIncidentRecords []InsuranceIncidentRecord `json:"insurance_incident_records,omitempty"`
	RecallRecords            []RecallRecord            `json:"recall_records,omitempty"`
	DebtRecords              []DebtRecord              `json:"debt_records,omitempty"`
	MileageReadings          []MileageReading          `json:"mileage_readings,omitempty"`
	SimilarCars              []MarketComparison        `json:"similar_cars,omitempty"`
	KnownIssues              []string                  `json:"known_issues,omitempty"`
	SecurityFeatures         []string                  `json:"security_features,omitempty"`
}

type InspectionRecord struct {
	Date   time.Time `json:"date"`
	Passed bool      `json:"passed"`
	Remark *string   `json:"remark,omitempty"`
}

type ServiceRecord struct {
	Date     time.Time `json:"date"`
	Workshop string    `json:"workshop"`
	Type     string    `json:"type"`
	Mileage  int       `json:"mileage"`
}

type OwnerRecord struct {
	From      time.Time  `json:"from"`
	To        *time.Time `json:"to,omitempty"`
	IsCompany bool       `json:"is_company"`
	City      string     `json:"city"`
}

type InsuranceIncidentRecord struct {
	Date     time.Time `json:"date"`
	Type     string    `json:"type"`
	Severity string    `json:"severity"`
}

type RecallRecord struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Remedied    bool      `json:"remedied"`
}

type DebtRecord struct {
	Type      string          `json:"type"`
	AmountSEK decimal.Decimal `json:"amount_sek"`
	Date      time.Time       `json:"date"`
}

type MileageReading struct {
	Date   time.Time `json:"date"`
	Km     int       `json:"km"`
	Source string    `json:"source"`
}

// MarketComparison is the asking price of a similar car on the market.
type MarketComparison struct {
	Model    string          `json:"model"`
	Year     int             `json:"year"`
	PriceSEK decimal.Decimal `json:"price_sek"`
}

// IsElectric reports whether the snapshot's fuel type is electric.
func (s *RawSignalSnapshot) IsElectric() bool {
	return s.FuelType != nil && strings.EqualFold(strings.TrimSpace(*s.FuelType), "electric")
}

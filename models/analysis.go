package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// Scores are rendered as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

var (
	ErrInvalidAnalysis = errors.New("invalid analysis result")

	minScore = decimal.Zero
	maxScore = decimal.NewFromInt(100)
)

// ScoreBreakdown holds the twelve per-category scores, each within [0,100].
type ScoreBreakdown struct {
	Age            decimal.Decimal `json:"age"`
	Mileage        decimal.Decimal `json:"mileage"`
	Insurance      decimal.Decimal `json:"insurance"`
	Recall         decimal.Decimal `json:"recall"`
	Inspection     decimal.Decimal `json:"inspection"`
	DebtFinance    decimal.Decimal `json:"debt_finance"`
	ServiceHistory decimal.Decimal `json:"service_history"`
	Drivetrain     decimal.Decimal `json:"drivetrain"`
	OwnerHistory   decimal.Decimal `json:"owner_history"`
	MarketValue    decimal.Decimal `json:"market_value"`
	Environment    decimal.Decimal `json:"environment"`
	TheftSecurity  decimal.Decimal `json:"theft_security"`
}

// Factors returns the breakdown as name/value pairs in a stable order.
func (b ScoreBreakdown) Factors() []NamedScore {
	return []NamedScore{
		{"age", b.Age},
		{"mileage", b.Mileage},
		{"insurance", b.Insurance},
		{"recall", b.Recall},
		{"inspection", b.Inspection},
		{"debt_finance", b.DebtFinance},
		{"service_history", b.ServiceHistory},
		{"drivetrain", b.Drivetrain},
		{"owner_history", b.OwnerHistory},
		{"market_value", b.MarketValue},
		{"environment", b.Environment},
		{"theft_security", b.TheftSecurity},
	}
}

type NamedScore struct {
	Name  string
	Value decimal.Decimal
}

// AnalysisResult is the persisted outcome of one analysis run. Only the scalar
// score and recommendation are durable.
type AnalysisResult struct {
	ID             uuid.UUID       `json:"id"`
	VehicleID      uuid.UUID       `json:"vehicle_id"`
	Score          decimal.Decimal `json:"score"`
	Recommendation string          `json:"recommendation"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NewAnalysisResult builds a validated result with a fresh id.
func NewAnalysisResult(vehicleID uuid.UUID, score decimal.Decimal, recommendation string, now time.Time) (*AnalysisResult, error) {
	result := &AnalysisResult{
		ID:             uuid.New(),
		VehicleID:      vehicleID,
		Score:          score.RoundBank(1),
		Recommendation: strings.TrimSpace(recommendation),
		CreatedAt:      now.UTC(),
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *AnalysisResult) Validate() error {
	if r.VehicleID == uuid.Nil {
		return fmt.Errorf("%w: vehicle id is required", ErrInvalidAnalysis)
	}
	if r.Score.LessThan(minScore) || r.Score.GreaterThan(maxScore) {
		return fmt.Errorf("%w: score %s outside 0-100", ErrInvalidAnalysis, r.Score.String())
	}
	if r.Recommendation == "" {
		return fmt.Errorf("%w: recommendation is required", ErrInvalidAnalysis)
	}
	return nil
}

// IsFresh reports whether the result is younger than window at now.
func (r *AnalysisResult) IsFresh(now time.Time, window time.Duration) bool {
	return now.Sub(r.CreatedAt) < window
}

// AnalysisDetails is the drill-down data shown next to a fresh analysis.
type AnalysisDetails struct {
	Inspections             []InspectionRecord        `json:"inspections"`
	Services                []ServiceRecord           `json:"services"`
	Owners                  []OwnerRecord             `json:"owners"`
	InsuranceIncidents      []InsuranceIncidentRecord `json:"insurance_incidents"`
	Recalls                 []RecallRecord            `json:"recalls"`
	Debts                   []DebtRecord              `json:"debts"`
	HasPurchaseBlock        bool                      `json:"has_purchase_block"`
	EuroClass               *string                   `json:"euro_class,omitempty"`
	CO2EmissionsGPerKm      *int                      `json:"co2_emissions_g_per_km,omitempty"`
	AnnualTaxSEK            *decimal.Decimal          `json:"annual_tax_sek,omitempty"`
	BonusMalusApplies       *bool                     `json:"bonus_malus_applies,omitempty"`
	MarketValueSEK          *decimal.Decimal          `json:"market_value_sek,omitempty"`
	AverageMarketPriceSEK   *decimal.Decimal          `json:"average_market_price_sek,omitempty"`
	DepreciationRatePercent *decimal.Decimal          `json:"depreciation_rate_percent,omitempty"`
	SimilarCars             []MarketComparison        `json:"similar_cars"`
	ReliabilityRating       *decimal.Decimal          `json:"reliability_rating,omitempty"`
	KnownIssues             []string                  `json:"known_issues"`
	AverageRepairCostSEK    *decimal.Decimal          `json:"average_repair_cost_sek,omitempty"`
	TheftRiskCategory       *string                   `json:"theft_risk_category,omitempty"`
	EuroNCAPRating          *int                      `json:"euro_ncap_rating,omitempty"`
	HasAlarmSystem          *bool                     `json:"has_alarm_system,omitempty"`
	SecurityFeatures        []string                  `json:"security_features"`
	FirstRegistrationDate   *time.Time                `json:"first_registration_date,omitempty"`
	IsImported              *bool                     `json:"is_imported,omitempty"`
	MileageHistory          []MileageReading          `json:"mileage_history"`
}

// DetailsFromSnapshot copies the drill-down data out of a snapshot. Missing
// lists become empty slices so clients always receive arrays.
func DetailsFromSnapshot(s *RawSignalSnapshot) *AnalysisDetails {
	return &AnalysisDetails{
		Inspections:             orEmpty(s.Inspections),
		Services:                orEmpty(s.ServiceRecords),
		Owners:                  orEmpty(s.OwnerRecords),
		InsuranceIncidents:      orEmpty(s.InsuranceIncidentRecords),
		Recalls:                 orEmpty(s.RecallRecords),
		Debts:                   orEmpty(s.DebtRecords),
		HasPurchaseBlock:        s.HasPurchaseBlock != nil && *s.HasPurchaseBlock,
		EuroClass:               s.EuroClass,
		CO2EmissionsGPerKm:      s.CO2EmissionsGPerKm,
		AnnualTaxSEK:            s.AnnualTaxSEK,
		BonusMalusApplies:       s.BonusMalusApplies,
		MarketValueSEK:          s.MarketValueSEK,
		AverageMarketPriceSEK:   s.AverageMarketPriceSEK,
		DepreciationRatePercent: s.DepreciationRatePercent,
		SimilarCars:             orEmpty(s.SimilarCars),
		ReliabilityRating:       s.ReliabilityRating,
		KnownIssues:             orEmpty(s.KnownIssues),
		AverageRepairCostSEK:    s.AverageRepairCostSEK,
		TheftRiskCategory:       s.TheftRiskCategory,
		EuroNCAPRating:          s.EuroNCAPRating,
		HasAlarmSystem:          s.HasAlarmSystem,
		SecurityFeatures:        orEmpty(s.SecurityFeatures),
		FirstRegistrationDate:   s.FirstRegistrationDate,
		IsImported:              s.IsImported,
		MileageHistory:          orEmpty(s.MileageReadings),
	}
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// VehicleSummary is the answer to a registration search. Enrichment fields are
// only populated when the provider was consulted for this answer.
type VehicleSummary struct {
	VehicleID          uuid.UUID        `json:"vehicle_id"`
	RegistrationNumber string           `json:"registration_number"`
	Brand              string           `json:"brand"`
	Model              string           `json:"model"`
	Year               int              `json:"year"`
	Mileage            int              `json:"mileage"`
	FuelType           *string          `json:"fuel_type"`
	HorsePower         *int             `json:"horse_power"`
	Color              *string          `json:"color"`
	MarketValueSEK     *decimal.Decimal `json:"market_value_sek"`
}

// SummaryFromVehicle builds a summary from a stored identity, optionally
// enriched from a provider snapshot.
func SummaryFromVehicle(v *VehicleIdentity, snapshot *RawSignalSnapshot) *VehicleSummary {
	summary := &VehicleSummary{
		VehicleID:          v.ID,
		RegistrationNumber: v.RegistrationNumber,
		Brand:              v.Brand,
		Model:              v.Model,
		Year:               v.Year,
		Mileage:            v.Mileage,
	}
	if snapshot != nil {
		summary.FuelType = snapshot.FuelType
		summary.HorsePower = snapshot.HorsePower
		summary.Color = snapshot.Color
		summary.MarketValueSEK = snapshot.MarketValueSEK
	}
	return summary
}

// VehicleAnalysis is the answer to an analysis request.
// BreakdownAvailable is false when the score was reused from a stored result
// and the breakdown could not be recomputed.
type VehicleAnalysis struct {
	AnalysisID         uuid.UUID        `json:"analysis_id"`
	VehicleID          uuid.UUID        `json:"vehicle_id"`
	RegistrationNumber string           `json:"registration_number"`
	Brand              string           `json:"brand"`
	Model              string           `json:"model"`
	Year               int              `json:"year"`
	Score              decimal.Decimal  `json:"score"`
	Recommendation     string           `json:"recommendation"`
	Breakdown          ScoreBreakdown   `json:"breakdown"`
	BreakdownAvailable bool             `json:"breakdown_available"`
	CreatedAt          time.Time        `json:"created_at"`
	Details            *AnalysisDetails `json:"details,omitempty"`
}

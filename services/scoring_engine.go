package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carcheck/carcheck-backend/models"
)

// Factor weights. They must sum to exactly 1.
var (
	WeightDebtFinance    = decimal.RequireFromString("0.15")
	WeightAge            = decimal.RequireFromString("0.12")
	WeightMileage        = decimal.RequireFromString("0.12")
	WeightInspection     = decimal.RequireFromString("0.10")
	WeightInsurance      = decimal.RequireFromString("0.09")
	WeightServiceHistory = decimal.RequireFromString("0.08")
	WeightDrivetrain     = decimal.RequireFromString("0.08")
	WeightRecall         = decimal.RequireFromString("0.06")
	WeightOwnerHistory   = decimal.RequireFromString("0.05")
	WeightMarketValue    = decimal.RequireFromString("0.05")
	WeightEnvironment    = decimal.RequireFromString("0.05")
	WeightTheftSecurity  = decimal.RequireFromString("0.05")
)

const (
	RecommendationExcellent    = "Excellent condition. This vehicle appears to be a strong choice with minimal risk factors."
	RecommendationGood         = "Good condition. The vehicle is generally sound with some minor considerations."
	RecommendationFair         = "Fair condition. There are some factors to be aware of, consider a professional inspection."
	RecommendationBelowAverage = "Below average. Multiple risk factors present, proceed with caution and get a thorough inspection."
	RecommendationPoor         = "Poor condition. Significant risk factors identified, we recommend exploring other options."
)

var (
	scoreFloor   = decimal.Zero
	scoreCeiling = decimal.NewFromInt(100)
	half         = decimal.RequireFromString("0.5")
)

// TotalWeight returns the sum of all factor weights.
func TotalWeight() decimal.Decimal {
	return decimal.Sum(
		WeightDebtFinance, WeightAge, WeightMileage, WeightInspection,
		WeightInsurance, WeightServiceHistory, WeightDrivetrain, WeightRecall,
		WeightOwnerHistory, WeightMarketValue, WeightEnvironment, WeightTheftSecurity,
	)
}

// AnalysisOutcome is what the engine produces for one snapshot.
type AnalysisOutcome struct {
	Score          decimal.Decimal
	Recommendation string
	Breakdown      models.ScoreBreakdown
}

// ScoringEngine turns a snapshot into a 0-100 score. It holds no state besides
// its clock and is safe for concurrent use.
type ScoringEngine struct {
	now func() time.Time
}

func NewScoringEngine(now func() time.Time) *ScoringEngine {
	if now == nil {
		now = time.Now
	}
	return &ScoringEngine{now: now}
}

// Analyze scores a snapshot. Every factor has a fallback, so any input,
// including nil, yields a score.
func (e *ScoringEngine) Analyze(s *models.RawSignalSnapshot) AnalysisOutcome {
	if s == nil {
		s = &models.RawSignalSnapshot{}
	}
	now := e.now()

	age := CalculateAgeScore(s.Year, now)
	mileage := CalculateMileageScore(s.Mileage, s.Year, now)
	insurance := CalculateInsuranceScore(s.InsuranceIncidents)
	recall := CalculateRecallScore(s.ManufacturerRecalls)
	inspection := CalculateInspectionScore(s.LastInspectionDate, s.InspectionPassed, now)
	debt := CalculateDebtFinanceScore(s.HasPurchaseBlock, s.OutstandingDebtSEK, s.TaxDebtSEK)
	service := CalculateServiceHistoryScore(s.ServiceCount, s.AuthorizedServiceUsed, s.LastServiceDate, s.CompleteServiceHistory, s.Year, now)
	drivetrain := CalculateDrivetrainScore(s.ReliabilityRating, s.CommonIssuesCount, s.AverageRepairCostSEK)
	owner := CalculateOwnerHistoryScore(s.NumberOfOwners, s.IsCompanyOwned, s.FirstRegistrationDate, now)
	market := CalculateMarketValueScore(s.MarketValueSEK, s.AverageMarketPriceSEK, s.DepreciationRatePercent)
	environment := CalculateEnvironmentScore(s.FuelType, s.EuroClass, s.CO2EmissionsGPerKm, s.AnnualTaxSEK)
	theft := CalculateTheftSecurityScore(s.TheftRiskCategory, s.EuroNCAPRating, s.HasAlarmSystem)

	total := decimal.Sum(
		debt.Mul(WeightDebtFinance),
		age.Mul(WeightAge),
		mileage.Mul(WeightMileage),
		inspection.Mul(WeightInspection),
		insurance.Mul(WeightInsurance),
		service.Mul(WeightServiceHistory),
		drivetrain.Mul(WeightDrivetrain),
		recall.Mul(WeightRecall),
		owner.Mul(WeightOwnerHistory),
		market.Mul(WeightMarketValue),
		environment.Mul(WeightEnvironment),
		theft.Mul(WeightTheftSecurity),
	)
	score := clampScore(total.RoundBank(1))

	return AnalysisOutcome{
		Score:          score,
		Recommendation: RecommendationFor(score),
		Breakdown: models.ScoreBreakdown{
			Age:            age.RoundBank(1),
			Mileage:        mileage.RoundBank(1),
			Insurance:      insurance.RoundBank(1),
			Recall:         recall.RoundBank(1),
			Inspection:     inspection.RoundBank(1),
			DebtFinance:    debt.RoundBank(1),
			ServiceHistory: service.RoundBank(1),
			Drivetrain:     drivetrain.RoundBank(1),
			OwnerHistory:   owner.RoundBank(1),
			MarketValue:    market.RoundBank(1),
			Environment:    environment.RoundBank(1),
			TheftSecurity:  theft.RoundBank(1),
		},
	}
}

// RecommendationFor picks the text for a final score. Boundaries are inclusive.
func RecommendationFor(score decimal.Decimal) string {
	switch {
	case score.GreaterThanOrEqual(decimal.NewFromInt(85)):
		return RecommendationExcellent
	case score.GreaterThanOrEqual(decimal.NewFromInt(70)):
		return RecommendationGood
	case score.GreaterThanOrEqual(decimal.NewFromInt(55)):
		return RecommendationFair
	case score.GreaterThanOrEqual(decimal.NewFromInt(40)):
		return RecommendationBelowAverage
	default:
		return RecommendationPoor
	}
}

func CalculateAgeScore(year int, now time.Time) decimal.Decimal {
	age := now.Year() - year
	switch {
	case age <= 1:
		return points(100)
	case age <= 3:
		return points(90)
	case age <= 5:
		return points(80)
	case age <= 8:
		return points(65)
	case age <= 12:
		return points(50)
	case age <= 18:
		return points(35)
	case age <= 25:
		return points(20)
	default:
		return points(10)
	}
}

// CalculateMileageScore buckets the annual average in km. Age is floored at
// one year.
func CalculateMileageScore(mileage, year int, now time.Time) decimal.Decimal {
	annual := mileage / vehicleAge(year, now)
	switch {
	case annual <= 8000:
		return points(100)
	case annual <= 12000:
		return points(85)
	case annual <= 16000:
		return points(70)
	case annual <= 22000:
		return points(55)
	case annual <= 30000:
		return points(35)
	default:
		return points(15)
	}
}

func CalculateInsuranceScore(incidents *int) decimal.Decimal {
	if incidents == nil {
		return points(70)
	}
	switch {
	case *incidents == 0:
		return points(100)
	case *incidents == 1:
		return points(75)
	case *incidents == 2:
		return points(50)
	case *incidents == 3:
		return points(30)
	default:
		return points(10)
	}
}

func CalculateRecallScore(recalls *int) decimal.Decimal {
	if recalls == nil {
		return points(80)
	}
	switch {
	case *recalls == 0:
		return points(100)
	case *recalls == 1:
		return points(80)
	case *recalls == 2:
		return points(60)
	case *recalls == 3:
		return points(40)
	default:
		return points(20)
	}
}

// CalculateInspectionScore buckets months since the last inspection, counted
// as whole 30-day periods. A failed inspection halves the score; an unknown
// outcome does not.
func CalculateInspectionScore(lastInspection *time.Time, passed *bool, now time.Time) decimal.Decimal {
	if lastInspection == nil {
		return points(50)
	}

	months := int(now.Sub(*lastInspection).Hours()/24) / 30
	var score decimal.Decimal
	switch {
	case months <= 6:
		score = points(100)
	case months <= 12:
		score = points(85)
	case months <= 18:
		score = points(65)
	case months <= 24:
		score = points(45)
	default:
		score = points(25)
	}

	if passed != nil && !*passed {
		score = score.Mul(half)
	}
	return score
}

// CalculateDebtFinanceScore returns 0 for any vehicle under a purchase block.
func CalculateDebtFinanceScore(hasPurchaseBlock *bool, outstandingDebt, taxDebt *decimal.Decimal) decimal.Decimal {
	if hasPurchaseBlock != nil && *hasPurchaseBlock {
		return decimal.Zero
	}
	if outstandingDebt == nil && taxDebt == nil {
		return points(50)
	}

	debt := decimal.Zero
	if outstandingDebt != nil {
		debt = *outstandingDebt
	}

	var score decimal.Decimal
	switch {
	case debt.LessThanOrEqual(decimal.Zero):
		score = points(100)
	case debt.LessThanOrEqual(points(20000)):
		score = points(80)
	case debt.LessThanOrEqual(points(50000)):
		score = points(60)
	case debt.LessThanOrEqual(points(100000)):
		score = points(40)
	case debt.LessThanOrEqual(points(200000)):
		score = points(20)
	default:
		score = points(5)
	}

	if taxDebt != nil && taxDebt.IsPositive() {
		score = score.Sub(points(15))
	}
	return clampScore(score)
}

func CalculateOwnerHistoryScore(owners *int, isCompanyOwned *bool, firstRegistration *time.Time, now time.Time) decimal.Decimal {
	if owners == nil && isCompanyOwned == nil && firstRegistration == nil {
		return points(60)
	}

	score := points(60)
	if owners != nil && *owners > 0 {
		switch *owners {
		case 1:
			score = points(100)
		case 2:
			score = points(85)
		case 3:
			score = points(65)
		case 4:
			score = points(45)
		default:
			score = points(25)
		}
	}

	if isCompanyOwned != nil && *isCompanyOwned {
		score = score.Sub(points(10))
	}

	// Registered long ago but never owned: likely sat unsold.
	if (owners == nil || *owners == 0) && firstRegistration != nil && firstRegistration.Before(now.AddDate(-1, 0, 0)) {
		score = score.Sub(points(5))
	}
	return clampScore(score)
}

func CalculateEnvironmentScore(fuelType, euroClass *string, co2GPerKm *int, annualTax *decimal.Decimal) decimal.Decimal {
	if fuelType != nil && strings.EqualFold(strings.TrimSpace(*fuelType), "electric") {
		return points(100)
	}

	score := euroClassScore(euroClass)

	if co2GPerKm != nil {
		switch {
		case *co2GPerKm <= 50:
		case *co2GPerKm <= 120:
			score = score.Sub(points(5))
		case *co2GPerKm <= 180:
			score = score.Sub(points(10))
		default:
			score = score.Sub(points(20))
		}
	}

	if annualTax != nil {
		switch {
		case annualTax.LessThanOrEqual(points(500)):
		case annualTax.LessThanOrEqual(points(2000)):
			score = score.Sub(points(5))
		case annualTax.LessThanOrEqual(points(5000)):
			score = score.Sub(points(10))
		default:
			score = score.Sub(points(15))
		}
	}
	return clampScore(score)
}

func euroClassScore(euroClass *string) decimal.Decimal {
	if euroClass == nil || strings.TrimSpace(*euroClass) == "" {
		return points(60)
	}
	switch strings.ToLower(strings.TrimSpace(*euroClass)) {
	case "euro 7", "euro 6d":
		return points(100)
	case "euro 6":
		return points(85)
	case "euro 5":
		return points(60)
	case "euro 4":
		return points(40)
	default:
		return points(20)
	}
}

// CalculateMarketValueScore rewards vehicles priced below the market average.
// depreciationPercent is the yearly depreciation in percent.
func CalculateMarketValueScore(marketValue, averagePrice, depreciationPercent *decimal.Decimal) decimal.Decimal {
	if marketValue == nil || averagePrice == nil || !averagePrice.IsPositive() {
		return points(50)
	}

	ratio := marketValue.Div(*averagePrice)
	var score decimal.Decimal
	switch {
	case ratio.LessThanOrEqual(decimal.RequireFromString("0.80")):
		score = points(95)
	case ratio.LessThanOrEqual(decimal.RequireFromString("0.95")):
		score = points(85)
	case ratio.LessThanOrEqual(decimal.RequireFromString("1.05")):
		score = points(75)
	case ratio.LessThanOrEqual(decimal.RequireFromString("1.15")):
		score = points(55)
	default:
		score = points(35)
	}

	if depreciationPercent != nil {
		switch {
		case depreciationPercent.LessThanOrEqual(points(8)):
			score = score.Add(points(5))
		case depreciationPercent.LessThanOrEqual(points(15)):
		case depreciationPercent.LessThanOrEqual(points(22)):
			score = score.Sub(points(5))
		default:
			score = score.Sub(points(10))
		}
	}
	return clampScore(score)
}

func CalculateServiceHistoryScore(serviceCount *int, authorizedService *bool, lastService *time.Time, completeHistory *bool, year int, now time.Time) decimal.Decimal {
	if serviceCount == nil && authorizedService == nil && lastService == nil && completeHistory == nil {
		return points(40)
	}

	count := 0
	if serviceCount != nil {
		count = *serviceCount
	}
	ratio := decimal.NewFromInt(int64(count)).Div(decimal.NewFromInt(int64(vehicleAge(year, now))))

	var score decimal.Decimal
	switch {
	case ratio.GreaterThanOrEqual(decimal.NewFromInt(1)):
		score = points(90)
	case ratio.GreaterThanOrEqual(decimal.RequireFromString("0.75")):
		score = points(70)
	case ratio.GreaterThanOrEqual(decimal.RequireFromString("0.50")):
		score = points(50)
	case ratio.GreaterThanOrEqual(decimal.RequireFromString("0.25")):
		score = points(30)
	default:
		score = points(15)
	}

	if completeHistory != nil && *completeHistory {
		score = score.Add(points(10))
	}
	if authorizedService != nil && *authorizedService {
		score = score.Add(points(5))
	}
	if lastService != nil && lastService.Before(now.AddDate(0, -24, 0)) {
		score = score.Sub(points(10))
	}
	return clampScore(score)
}

// CalculateTheftSecurityScore averages the theft risk and crash rating scores
// and adds a bonus for an alarm.
func CalculateTheftSecurityScore(riskCategory *string, ncapRating *int, hasAlarm *bool) decimal.Decimal {
	if riskCategory == nil && ncapRating == nil && hasAlarm == nil {
		return points(60)
	}

	risk := points(60)
	if riskCategory != nil {
		switch strings.ToLower(strings.TrimSpace(*riskCategory)) {
		case "low":
			risk = points(100)
		case "medium":
			risk = points(65)
		case "high":
			risk = points(30)
		}
	}

	ncap := points(60)
	if ncapRating != nil {
		switch *ncapRating {
		case 5:
			ncap = points(100)
		case 4:
			ncap = points(80)
		case 3:
			ncap = points(60)
		case 2:
			ncap = points(40)
		case 1:
			ncap = points(20)
		}
	}

	score := risk.Add(ncap).Div(points(2))
	if hasAlarm != nil && *hasAlarm {
		score = score.Add(points(5))
	}
	return clampScore(score)
}

func CalculateDrivetrainScore(reliability *decimal.Decimal, knownIssues *int, averageRepairCost *decimal.Decimal) decimal.Decimal {
	score := points(55)
	if reliability != nil {
		score = *reliability
	}

	if knownIssues != nil {
		switch {
		case *knownIssues <= 0:
		case *knownIssues <= 2:
			score = score.Sub(points(5))
		case *knownIssues <= 4:
			score = score.Sub(points(10))
		case *knownIssues <= 6:
			score = score.Sub(points(15))
		default:
			score = score.Sub(points(25))
		}
	}

	if averageRepairCost != nil {
		switch {
		case averageRepairCost.LessThanOrEqual(points(3000)):
		case averageRepairCost.LessThanOrEqual(points(8000)):
			score = score.Sub(points(5))
		case averageRepairCost.LessThanOrEqual(points(15000)):
			score = score.Sub(points(10))
		default:
			score = score.Sub(points(15))
		}
	}
	return clampScore(score)
}

func vehicleAge(year int, now time.Time) int {
	return max(1, now.Year()-year)
}

func clampScore(score decimal.Decimal) decimal.Decimal {
	if score.LessThan(scoreFloor) {
		return scoreFloor
	}
	if score.GreaterThan(scoreCeiling) {
		return scoreCeiling
	}
	return score
}

func points(value int64) decimal.Decimal {
	return decimal.NewFromInt(value)
}

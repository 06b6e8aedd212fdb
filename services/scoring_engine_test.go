package services

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/carcheck/carcheck-backend/models"
)

var engineNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func dec(v string) *decimal.Decimal {
	value := decimal.RequireFromString(v)
	return &value
}

func assertScore(t *testing.T, expected string, actual decimal.Decimal, where ...any) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(expected).Equal(actual),
		"expected %s, got %s %v", expected, actual.String(), where)
}

func sameBreakdown(a, b models.ScoreBreakdown) bool {
	left, right := a.Factors(), b.Factors()
	for i := range left {
		if !left[i].Value.Equal(right[i].Value) {
			return false
		}
	}
	return true
}

func TestWeightsSumToOne(t *testing.T) {
	assert.True(t, TotalWeight().Equal(decimal.NewFromInt(1)), "weights sum to %s", TotalWeight())
}

func TestCalculateAgeScore(t *testing.T) {
	cases := []struct {
		age      int
		expected string
	}{
		{0, "100"}, {1, "100"}, {2, "90"}, {3, "90"}, {5, "80"}, {8, "65"},
		{12, "50"}, {13, "35"}, {18, "35"}, {25, "20"}, {26, "10"}, {36, "10"},
	}
	for _, tc := range cases {
		assertScore(t, tc.expected, CalculateAgeScore(engineNow.Year()-tc.age, engineNow), "age %d", tc.age)
	}
}

func TestCalculateMileageScore(t *testing.T) {
	cases := []struct {
		mileage, year int
		expected      string
	}{
		{80000, 2015, "100"},
		{120000, 2015, "85"},
		{160000, 2015, "70"},
		{220000, 2015, "55"},
		{300000, 2015, "35"},
		{300010, 2015, "15"},
		// current model year divides by one, not zero
		{10000, 2025, "85"},
		{0, 2025, "100"},
	}
	for _, tc := range cases {
		assertScore(t, tc.expected, CalculateMileageScore(tc.mileage, tc.year, engineNow), "mileage %d year %d", tc.mileage, tc.year)
	}
}

func TestCalculateInsuranceAndRecallScores(t *testing.T) {
	insurance := map[int]string{-1: "10", 0: "100", 1: "75", 2: "50", 3: "30", 4: "10", 9: "10"}
	for incidents, expected := range insurance {
		assertScore(t, expected, CalculateInsuranceScore(ptr(incidents)), "incidents %d", incidents)
	}
	assertScore(t, "70", CalculateInsuranceScore(nil))

	recalls := map[int]string{-1: "20", 0: "100", 1: "80", 2: "60", 3: "40", 4: "20"}
	for count, expected := range recalls {
		assertScore(t, expected, CalculateRecallScore(ptr(count)), "recalls %d", count)
	}
	assertScore(t, "80", CalculateRecallScore(nil))
}

func TestCalculateInspectionScore(t *testing.T) {
	monthsAgo := func(m int) *time.Time { return ptr(engineNow.AddDate(0, 0, -30*m)) }

	assertScore(t, "100", CalculateInspectionScore(monthsAgo(2), ptr(true), engineNow))
	assertScore(t, "85", CalculateInspectionScore(monthsAgo(10), ptr(true), engineNow))
	assertScore(t, "65", CalculateInspectionScore(monthsAgo(14), ptr(true), engineNow))
	assertScore(t, "45", CalculateInspectionScore(monthsAgo(24), ptr(true), engineNow))
	assertScore(t, "25", CalculateInspectionScore(monthsAgo(25), ptr(true), engineNow))
	assertScore(t, "50", CalculateInspectionScore(nil, ptr(true), engineNow))

	// unknown outcome is not a failure
	assertScore(t, "100", CalculateInspectionScore(monthsAgo(2), nil, engineNow))
}

func TestFailedInspectionHalvesScore(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("failed inspection scores half of a passed one", prop.ForAll(
		func(daysAgo int) bool {
			date := engineNow.AddDate(0, 0, -daysAgo)
			passed := CalculateInspectionScore(&date, ptr(true), engineNow)
			failed := CalculateInspectionScore(&date, ptr(false), engineNow)
			return failed.Equal(passed.Mul(decimal.RequireFromString("0.5")))
		},
		gen.IntRange(0, 3650),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCalculateDebtFinanceScore(t *testing.T) {
	assertScore(t, "0", CalculateDebtFinanceScore(ptr(true), nil, nil))
	assertScore(t, "0", CalculateDebtFinanceScore(ptr(true), dec("0"), dec("0")))
	assertScore(t, "0", CalculateDebtFinanceScore(ptr(true), dec("500000"), dec("9000")))
	assertScore(t, "50", CalculateDebtFinanceScore(nil, nil, nil))
	assertScore(t, "50", CalculateDebtFinanceScore(ptr(false), nil, nil))

	assertScore(t, "100", CalculateDebtFinanceScore(ptr(false), dec("0"), dec("0")))
	assertScore(t, "80", CalculateDebtFinanceScore(nil, dec("20000"), nil))
	assertScore(t, "60", CalculateDebtFinanceScore(nil, dec("45000"), nil))
	assertScore(t, "40", CalculateDebtFinanceScore(nil, dec("100000"), nil))
	assertScore(t, "20", CalculateDebtFinanceScore(nil, dec("120000"), nil))
	assertScore(t, "5", CalculateDebtFinanceScore(nil, dec("250000"), nil))

	// tax debt alone counts the outstanding debt as zero
	assertScore(t, "85", CalculateDebtFinanceScore(nil, nil, dec("3500")))
	assertScore(t, "0", CalculateDebtFinanceScore(nil, dec("250000"), dec("1")))
}

func TestCalculateOwnerHistoryScore(t *testing.T) {
	longAgo := ptr(engineNow.AddDate(-3, 0, 0))
	recent := ptr(engineNow.AddDate(0, -6, 0))

	assertScore(t, "60", CalculateOwnerHistoryScore(nil, nil, nil, engineNow))
	assertScore(t, "100", CalculateOwnerHistoryScore(ptr(1), ptr(false), longAgo, engineNow))
	assertScore(t, "85", CalculateOwnerHistoryScore(ptr(2), nil, nil, engineNow))
	assertScore(t, "65", CalculateOwnerHistoryScore(ptr(3), nil, nil, engineNow))
	assertScore(t, "45", CalculateOwnerHistoryScore(ptr(4), nil, nil, engineNow))
	assertScore(t, "25", CalculateOwnerHistoryScore(ptr(5), nil, nil, engineNow))
	assertScore(t, "90", CalculateOwnerHistoryScore(ptr(1), ptr(true), recent, engineNow))

	assertScore(t, "55", CalculateOwnerHistoryScore(ptr(0), nil, longAgo, engineNow))
	assertScore(t, "55", CalculateOwnerHistoryScore(nil, nil, longAgo, engineNow))
	assertScore(t, "60", CalculateOwnerHistoryScore(nil, nil, recent, engineNow))
	assertScore(t, "45", CalculateOwnerHistoryScore(nil, ptr(true), longAgo, engineNow))
}

func TestCalculateEnvironmentScore(t *testing.T) {
	assertScore(t, "100", CalculateEnvironmentScore(ptr("Electric"), ptr("Euro 4"), ptr(300), dec("9000")))
	assertScore(t, "100", CalculateEnvironmentScore(ptr("electric"), nil, nil, nil))
	assertScore(t, "60", CalculateEnvironmentScore(nil, nil, nil, nil))

	classes := map[string]string{
		"Euro 7": "100", "Euro 6d": "100", "euro 6": "85", "Euro 5": "60",
		"Euro 4": "40", "Euro 3": "20", "": "60",
	}
	for class, expected := range classes {
		assertScore(t, expected, CalculateEnvironmentScore(ptr("Petrol"), ptr(class), nil, nil), "class %q", class)
	}

	assertScore(t, "85", CalculateEnvironmentScore(ptr("Diesel"), ptr("Euro 6d"), ptr(149), dec("1891")))
	assertScore(t, "25", CalculateEnvironmentScore(ptr("Petrol"), ptr("Euro 4"), ptr(169), dec("1478")))
	assertScore(t, "75", CalculateEnvironmentScore(ptr("Hybrid"), ptr("Euro 6"), ptr(50), dec("2001")))
	assertScore(t, "0", CalculateEnvironmentScore(nil, ptr("Euro 2"), ptr(250), dec("6000")))
}

func TestCalculateMarketValueScore(t *testing.T) {
	assertScore(t, "50", CalculateMarketValueScore(nil, nil, nil))
	assertScore(t, "50", CalculateMarketValueScore(dec("100000"), nil, dec("5")))
	assertScore(t, "50", CalculateMarketValueScore(dec("100000"), dec("0"), nil))

	assertScore(t, "95", CalculateMarketValueScore(dec("80000"), dec("100000"), nil))
	assertScore(t, "85", CalculateMarketValueScore(dec("95000"), dec("100000"), nil))
	assertScore(t, "75", CalculateMarketValueScore(dec("385000"), dec("395000"), dec("12")))
	assertScore(t, "55", CalculateMarketValueScore(dec("115000"), dec("100000"), nil))
	assertScore(t, "35", CalculateMarketValueScore(dec("130000"), dec("100000"), nil))

	assertScore(t, "100", CalculateMarketValueScore(dec("70000"), dec("100000"), dec("8")))
	assertScore(t, "70", CalculateMarketValueScore(dec("100000"), dec("100000"), dec("22")))
	assertScore(t, "25", CalculateMarketValueScore(dec("130000"), dec("100000"), dec("30")))
}

func TestCalculateServiceHistoryScore(t *testing.T) {
	assertScore(t, "40", CalculateServiceHistoryScore(nil, nil, nil, nil, 2020, engineNow))

	recent := ptr(engineNow.AddDate(0, -4, 0))
	stale := ptr(engineNow.AddDate(0, -30, 0))

	assertScore(t, "100", CalculateServiceHistoryScore(ptr(5), ptr(true), recent, ptr(true), 2021, engineNow))
	assertScore(t, "70", CalculateServiceHistoryScore(ptr(3), nil, nil, nil, 2021, engineNow))
	assertScore(t, "50", CalculateServiceHistoryScore(ptr(2), nil, nil, nil, 2021, engineNow))
	assertScore(t, "30", CalculateServiceHistoryScore(ptr(1), nil, nil, nil, 2021, engineNow))
	assertScore(t, "20", CalculateServiceHistoryScore(ptr(4), ptr(false), stale, ptr(false), 2010, engineNow))

	// unknown count counts as zero once another signal exists
	assertScore(t, "20", CalculateServiceHistoryScore(nil, ptr(true), nil, nil, 2021, engineNow))
	// brand new car with one service
	assertScore(t, "90", CalculateServiceHistoryScore(ptr(1), nil, nil, nil, 2025, engineNow))
}

func TestCalculateTheftSecurityScore(t *testing.T) {
	// (100+100)/2 + 5 clamps to 100
	assertScore(t, "100", CalculateTheftSecurityScore(ptr("Low"), ptr(5), ptr(true)))
	assertScore(t, "60", CalculateTheftSecurityScore(nil, nil, nil))
	assertScore(t, "72.5", CalculateTheftSecurityScore(ptr("Medium"), ptr(4), nil))
	assertScore(t, "45", CalculateTheftSecurityScore(ptr("High"), nil, nil))
	assertScore(t, "45", CalculateTheftSecurityScore(ptr("high"), ptr(3), ptr(false)))
	assertScore(t, "65", CalculateTheftSecurityScore(nil, nil, ptr(true)))
	assertScore(t, "40", CalculateTheftSecurityScore(ptr("Unknown"), ptr(1), nil))
}

func TestCalculateDrivetrainScore(t *testing.T) {
	assertScore(t, "55", CalculateDrivetrainScore(nil, nil, nil))
	assertScore(t, "75", CalculateDrivetrainScore(dec("85"), ptr(1), dec("4500")))
	assertScore(t, "30", CalculateDrivetrainScore(dec("55"), ptr(6), dec("9000")))
	assertScore(t, "50", CalculateDrivetrainScore(dec("75"), ptr(7), nil))
	assertScore(t, "0", CalculateDrivetrainScore(dec("20"), ptr(10), dec("20000")))
	assertScore(t, "100", CalculateDrivetrainScore(dec("140"), ptr(0), dec("1000")))
}

func TestRecommendationThresholds(t *testing.T) {
	cases := []struct {
		score    string
		expected string
	}{
		{"100", RecommendationExcellent},
		{"85", RecommendationExcellent},
		{"84.9", RecommendationGood},
		{"70", RecommendationGood},
		{"69.9", RecommendationFair},
		{"55", RecommendationFair},
		{"54.9", RecommendationBelowAverage},
		{"40", RecommendationBelowAverage},
		{"39.9", RecommendationPoor},
		{"0", RecommendationPoor},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, RecommendationFor(decimal.RequireFromString(tc.score)), "score %s", tc.score)
	}
}

// The weighted sum here is exactly 67.65; halves round to the even digit.
func TestAnalyzeRoundsHalfToEven(t *testing.T) {
	engine := NewScoringEngine(fixedClock(engineNow))
	outcome := engine.Analyze(&models.RawSignalSnapshot{
		Year:                  engineNow.Year(),
		InsuranceIncidents:    ptr(1),
		HasAlarmSystem:        ptr(true),
		MarketValueSEK:        dec("110000"),
		AverageMarketPriceSEK: dec("100000"),
	})

	assertScore(t, "67.6", outcome.Score)
	assert.Equal(t, RecommendationFair, outcome.Recommendation)
	assertScore(t, "65", outcome.Breakdown.TheftSecurity)
	assertScore(t, "55", outcome.Breakdown.MarketValue)
}

func TestAnalyzeAllNullSnapshotUsesFallbacks(t *testing.T) {
	engine := NewScoringEngine(func() time.Time { return engineNow })

	outcome := engine.Analyze(&models.RawSignalSnapshot{Year: engineNow.Year()})
	b := outcome.Breakdown

	assertScore(t, "100", b.Age)
	assertScore(t, "100", b.Mileage)
	assertScore(t, "70", b.Insurance)
	assertScore(t, "80", b.Recall)
	assertScore(t, "50", b.Inspection)
	assertScore(t, "50", b.DebtFinance)
	assertScore(t, "40", b.ServiceHistory)
	assertScore(t, "55", b.Drivetrain)
	assertScore(t, "60", b.OwnerHistory)
	assertScore(t, "50", b.MarketValue)
	assertScore(t, "60", b.Environment)
	assertScore(t, "60", b.TheftSecurity)

	// 7.5+12+12+5+6.3+3.2+4.4+4.8+3+2.5+3+3
	assertScore(t, "66.7", outcome.Score)
	assert.Equal(t, RecommendationFair, outcome.Recommendation)

	assert.NotPanics(t, func() { engine.Analyze(nil) })
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	engine := NewScoringEngine(func() time.Time { return engineNow })

	properties := gopter.NewProperties(nil)
	properties.Property("identical snapshots produce identical outcomes", prop.ForAll(
		func(year, mileage, incidents, owners int, block bool) bool {
			snapshot := &models.RawSignalSnapshot{
				Year:               year,
				Mileage:            mileage,
				InsuranceIncidents: &incidents,
				NumberOfOwners:     &owners,
				HasPurchaseBlock:   &block,
			}
			first := engine.Analyze(snapshot)
			second := engine.Analyze(snapshot)
			return first.Score.Equal(second.Score) &&
				first.Recommendation == second.Recommendation &&
				sameBreakdown(first.Breakdown, second.Breakdown)
		},
		gen.IntRange(1950, 2026),
		gen.IntRange(0, 500000),
		gen.IntRange(0, 10),
		gen.IntRange(0, 10),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestAnalyzeScoresStayInRange(t *testing.T) {
	engine := NewScoringEngine(func() time.Time { return engineNow })
	inRange := func(v decimal.Decimal) bool {
		return !v.IsNegative() && v.LessThanOrEqual(decimal.NewFromInt(100))
	}

	properties := gopter.NewProperties(nil)
	properties.Property("score and every factor stay within 0-100", prop.ForAll(
		func(year, mileage, issues, ncap, co2 int, debt, reliability, tax int64, alarm bool) bool {
			snapshot := &models.RawSignalSnapshot{
				Year:                 year,
				Mileage:              mileage,
				CommonIssuesCount:    &issues,
				EuroNCAPRating:       &ncap,
				CO2EmissionsGPerKm:   &co2,
				OutstandingDebtSEK:   ptr(decimal.NewFromInt(debt)),
				TaxDebtSEK:           ptr(decimal.NewFromInt(tax)),
				ReliabilityRating:    ptr(decimal.NewFromInt(reliability)),
				AverageRepairCostSEK: ptr(decimal.NewFromInt(tax)),
				HasAlarmSystem:       &alarm,
				TheftRiskCategory:    ptr("Low"),
			}
			outcome := engine.Analyze(snapshot)
			if !inRange(outcome.Score) {
				return false
			}
			for _, factor := range outcome.Breakdown.Factors() {
				if !inRange(factor.Value) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1886, 2026),
		gen.IntRange(0, 1000000),
		gen.IntRange(-5, 20),
		gen.IntRange(0, 6),
		gen.IntRange(0, 400),
		gen.Int64Range(-1000, 1000000),
		gen.Int64Range(-50, 200),
		gen.Int64Range(0, 50000),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

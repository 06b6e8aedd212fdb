package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/carcheck/carcheck-backend/models"
)

// FixtureProvider serves a fixed set of reference vehicles. Dates that
// describe "how long ago" (last inspection, last service) are computed from
// the provider's clock so the scores stay stable as time passes.
type FixtureProvider struct {
	now func() time.Time
}

func NewFixtureProvider(now func() time.Time) *FixtureProvider {
	if now == nil {
		now = time.Now
	}
	return &FixtureProvider{now: now}
}

func (p *FixtureProvider) Name() string { return "fixture" }

// Registrations lists the registrations the provider knows about.
func (p *FixtureProvider) Registrations() []string {
	return []string{"ABC123", "DEF456", "GHI789", "JKL012", "MNO345"}
}

func (p *FixtureProvider) FetchByRegistration(ctx context.Context, registration string) (*models.RawSignalSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	normalized := models.NormalizeRegistration(registration)
	build, ok := fixtureVehicles[normalized]
	if !ok {
		logrus.WithFields(logrus.Fields{
			"component":    "FixtureProvider",
			"registration": normalized,
		}).Debug("Registration not in fixture set")
		return nil, nil
	}
	return build(p.now().UTC()), nil
}

func utc(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func sek(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount)
}

func sekPtr(amount int64) *decimal.Decimal {
	return ptr(sek(amount))
}

var fixtureVehicles = map[string]func(now time.Time) *models.RawSignalSnapshot{
	"ABC123": func(now time.Time) *models.RawSignalSnapshot {
		return &models.RawSignalSnapshot{
			RegistrationNumber: "ABC123", Brand: "Volvo", Model: "XC60", Year: 2021, Mileage: 35000,
			FuelType: ptr("Diesel"), HorsePower: ptr(235), Color: ptr("Black"),
			InsuranceIncidents: ptr(0), ManufacturerRecalls: ptr(0),
			LastInspectionDate: ptr(now.AddDate(0, -3, 0)), InspectionPassed: ptr(true),
			MarketValueSEK: sekPtr(385000),

			NumberOfOwners: ptr(1), IsCompanyOwned: ptr(false),
			FirstRegistrationDate: ptr(utc(2021, time.March, 15)), IsImported: ptr(false),
			OutstandingDebtSEK: sekPtr(0), TaxDebtSEK: sekPtr(0), HasPurchaseBlock: ptr(false),
			EuroClass: ptr("Euro 6d"), CO2EmissionsGPerKm: ptr(149), AnnualTaxSEK: sekPtr(1891), BonusMalusApplies: ptr(true),
			AverageMarketPriceSEK: sekPtr(395000), DepreciationRatePercent: sekPtr(12),
			ServiceCount: ptr(5), AuthorizedServiceUsed: ptr(true),
			LastServiceDate: ptr(now.AddDate(0, -4, 0)), CompleteServiceHistory: ptr(true),
			TheftRiskCategory: ptr("Low"), EuroNCAPRating: ptr(5), HasAlarmSystem: ptr(true),
			ReliabilityRating: sekPtr(85), CommonIssuesCount: ptr(1), AverageRepairCostSEK: sekPtr(4500),

			Inspections: []models.InspectionRecord{
				{Date: utc(2022, time.March, 10), Passed: true},
				{Date: utc(2023, time.March, 22), Passed: true},
				{Date: utc(2025, time.March, 5), Passed: true},
			},
			ServiceRecords: []models.ServiceRecord{
				{Date: utc(2021, time.September, 15), Workshop: "Volvo Servicecenter Stockholm", Type: "Liten service", Mileage: 8700},
				{Date: utc(2022, time.March, 8), Workshop: "Volvo Servicecenter Stockholm", Type: "Stor service", Mileage: 17500},
				{Date: utc(2023, time.March, 20), Workshop: "Volvo Servicecenter Stockholm", Type: "Liten service", Mileage: 26200},
				{Date: utc(2024, time.April, 2), Workshop: "Volvo Servicecenter Stockholm", Type: "Stor service", Mileage: 30500},
				{Date: utc(2025, time.October, 14), Workshop: "Volvo Servicecenter Stockholm", Type: "Liten service", Mileage: 35000},
			},
			OwnerRecords: []models.OwnerRecord{
				{From: utc(2021, time.March, 15), City: "Stockholm"},
			},
			InsuranceIncidentRecords: []models.InsuranceIncidentRecord{},
			RecallRecords:            []models.RecallRecord{},
			DebtRecords:              []models.DebtRecord{},
			MileageReadings: []models.MileageReading{
				{Date: utc(2022, time.March, 10), Km: 8750, Source: "Besiktning"},
				{Date: utc(2023, time.March, 22), Km: 17500, Source: "Besiktning"},
				{Date: utc(2024, time.April, 2), Km: 26250, Source: "Service"},
				{Date: utc(2025, time.March, 5), Km: 35000, Source: "Besiktning"},
			},
			SimilarCars: []models.MarketComparison{
				{Model: "XC60", Year: 2020, PriceSEK: sek(340000)},
				{Model: "XC60", Year: 2021, PriceSEK: sek(390000)},
				{Model: "XC60", Year: 2022, PriceSEK: sek(445000)},
			},
			KnownIssues:      []string{"Sporadisk varning för startmotor vid kall väderlek"},
			SecurityFeatures: []string{"Volvo On Call", "Startspärr", "Larm", "GPS-spårning"},
		}
	},

	"DEF456": func(now time.Time) *models.RawSignalSnapshot {
		return &models.RawSignalSnapshot{
			RegistrationNumber: "DEF456", Brand: "BMW", Model: "320d", Year: 2018, Mileage: 87000,
			FuelType: ptr("Diesel"), HorsePower: ptr(190), Color: ptr("White"),
			InsuranceIncidents: ptr(1), ManufacturerRecalls: ptr(1),
			LastInspectionDate: ptr(now.AddDate(0, -8, 0)), InspectionPassed: ptr(true),
			MarketValueSEK: sekPtr(215000),

			NumberOfOwners: ptr(2), IsCompanyOwned: ptr(false),
			FirstRegistrationDate: ptr(utc(2018, time.June, 1)), IsImported: ptr(false),
			OutstandingDebtSEK: sekPtr(45000), TaxDebtSEK: sekPtr(0), HasPurchaseBlock: ptr(false),
			EuroClass: ptr("Euro 6"), CO2EmissionsGPerKm: ptr(119), AnnualTaxSEK: sekPtr(1360), BonusMalusApplies: ptr(true),
			AverageMarketPriceSEK: sekPtr(230000), DepreciationRatePercent: sekPtr(15),
			ServiceCount: ptr(6), AuthorizedServiceUsed: ptr(true),
			LastServiceDate: ptr(now.AddDate(0, -6, 0)), CompleteServiceHistory: ptr(true),
			TheftRiskCategory: ptr("Medium"), EuroNCAPRating: ptr(5), HasAlarmSystem: ptr(true),
			ReliabilityRating: sekPtr(72), CommonIssuesCount: ptr(3), AverageRepairCostSEK: sekPtr(8500),

			Inspections: []models.InspectionRecord{
				{Date: utc(2019, time.June, 12), Passed: true},
				{Date: utc(2020, time.June, 18), Passed: true},
				{Date: utc(2021, time.June, 25), Passed: true},
				{Date: utc(2022, time.July, 3), Passed: true, Remark: ptr("Slitage bromsskivor fram")},
				{Date: utc(2025, time.June, 10), Passed: true},
			},
			ServiceRecords: []models.ServiceRecord{
				{Date: utc(2019, time.March, 5), Workshop: "BMW Motorrad Stockholm", Type: "Liten service", Mileage: 12500},
				{Date: utc(2020, time.March, 18), Workshop: "BMW Motorrad Stockholm", Type: "Stor service", Mileage: 25000},
				{Date: utc(2021, time.April, 10), Workshop: "BMW Motorrad Stockholm", Type: "Liten service", Mileage: 37500},
				{Date: utc(2022, time.May, 22), Workshop: "Mekonomen Solna", Type: "Stor service", Mileage: 50000},
				{Date: utc(2023, time.June, 14), Workshop: "Mekonomen Solna", Type: "Liten service", Mileage: 62500},
				{Date: utc(2025, time.August, 2), Workshop: "BMW Motorrad Stockholm", Type: "Stor service", Mileage: 87000},
			},
			OwnerRecords: []models.OwnerRecord{
				{From: utc(2018, time.June, 1), To: ptr(utc(2021, time.September, 15)), City: "Göteborg"},
				{From: utc(2021, time.September, 15), City: "Stockholm"},
			},
			InsuranceIncidentRecords: []models.InsuranceIncidentRecord{
				{Date: utc(2022, time.November, 8), Type: "Parkeringsskada", Severity: "Mindre"},
			},
			RecallRecords: []models.RecallRecord{
				{Date: utc(2020, time.February, 14), Description: "Uppdatering av motorstyrningsprogramvara", Remedied: true},
			},
			DebtRecords: []models.DebtRecord{
				{Type: "Billån", AmountSEK: sek(45000), Date: utc(2021, time.September, 15)},
			},
			MileageReadings: []models.MileageReading{
				{Date: utc(2019, time.June, 12), Km: 12500, Source: "Besiktning"},
				{Date: utc(2020, time.March, 18), Km: 25000, Source: "Service"},
				{Date: utc(2020, time.June, 18), Km: 27500, Source: "Besiktning"},
				{Date: utc(2021, time.June, 25), Km: 37500, Source: "Besiktning"},
				{Date: utc(2022, time.July, 3), Km: 50000, Source: "Besiktning"},
				{Date: utc(2023, time.June, 14), Km: 62500, Source: "Service"},
				{Date: utc(2025, time.June, 10), Km: 87000, Source: "Besiktning"},
			},
			SimilarCars: []models.MarketComparison{
				{Model: "320d", Year: 2017, PriceSEK: sek(175000)},
				{Model: "320d", Year: 2018, PriceSEK: sek(220000)},
				{Model: "320d", Year: 2019, PriceSEK: sek(265000)},
			},
			KnownIssues: []string{
				"EGR-ventil kan behöva bytas vid 120 000 km",
				"Kedjesträckare kontrolleras vid 100 000 km",
				"Oljeläckage vid oljefilterhus",
			},
			SecurityFeatures: []string{"BMW Connected Drive", "Startspärr", "Larm"},
		}
	},

	"GHI789": func(now time.Time) *models.RawSignalSnapshot {
		return &models.RawSignalSnapshot{
			RegistrationNumber: "GHI789", Brand: "Toyota", Model: "Corolla", Year: 2015, Mileage: 142000,
			FuelType: ptr("Petrol"), HorsePower: ptr(132), Color: ptr("Silver"),
			InsuranceIncidents: ptr(2), ManufacturerRecalls: ptr(0),
			LastInspectionDate: ptr(now.AddDate(0, -14, 0)), InspectionPassed: ptr(false),
			MarketValueSEK: sekPtr(95000),

			NumberOfOwners: ptr(3), IsCompanyOwned: ptr(false),
			FirstRegistrationDate: ptr(utc(2015, time.January, 20)), IsImported: ptr(false),
			OutstandingDebtSEK: sekPtr(0), TaxDebtSEK: sekPtr(0), HasPurchaseBlock: ptr(false),
			EuroClass: ptr("Euro 5"), CO2EmissionsGPerKm: ptr(135), AnnualTaxSEK: sekPtr(1006), BonusMalusApplies: ptr(false),
			AverageMarketPriceSEK: sekPtr(105000), DepreciationRatePercent: sekPtr(10),
			ServiceCount: ptr(7), AuthorizedServiceUsed: ptr(false),
			LastServiceDate: ptr(now.AddDate(0, -18, 0)), CompleteServiceHistory: ptr(false),
			TheftRiskCategory: ptr("Low"), EuroNCAPRating: ptr(4), HasAlarmSystem: ptr(false),
			ReliabilityRating: sekPtr(90), CommonIssuesCount: ptr(1), AverageRepairCostSEK: sekPtr(2500),

			Inspections: []models.InspectionRecord{
				{Date: utc(2016, time.January, 25), Passed: true},
				{Date: utc(2017, time.February, 8), Passed: true},
				{Date: utc(2018, time.January, 30), Passed: true},
				{Date: utc(2019, time.February, 14), Passed: true},
				{Date: utc(2021, time.March, 3), Passed: true},
				{Date: utc(2023, time.February, 20), Passed: true},
				{Date: utc(2025, time.January, 15), Passed: false, Remark: ptr("Bromsskivor slitna, handbroms ur funktion")},
			},
			ServiceRecords: []models.ServiceRecord{
				{Date: utc(2016, time.January, 20), Workshop: "Mekonomen Järfälla", Type: "Liten service", Mileage: 13000},
				{Date: utc(2017, time.March, 10), Workshop: "Mekonomen Järfälla", Type: "Liten service", Mileage: 26000},
				{Date: utc(2018, time.April, 5), Workshop: "Mekonomen Järfälla", Type: "Stor service", Mileage: 39000},
				{Date: utc(2019, time.May, 15), Workshop: "OK Q8 Bilverkstad", Type: "Liten service", Mileage: 52000},
				{Date: utc(2020, time.June, 22), Workshop: "OK Q8 Bilverkstad", Type: "Liten service", Mileage: 65000},
				{Date: utc(2021, time.August, 10), Workshop: "Mekonomen Järfälla", Type: "Liten service", Mileage: 78000},
				{Date: utc(2023, time.February, 18), Workshop: "OK Q8 Bilverkstad", Type: "Liten service", Mileage: 117000},
			},
			OwnerRecords: []models.OwnerRecord{
				{From: utc(2015, time.January, 20), To: ptr(utc(2018, time.May, 10)), City: "Uppsala"},
				{From: utc(2018, time.May, 10), To: ptr(utc(2022, time.August, 1)), City: "Västerås"},
				{From: utc(2022, time.August, 1), City: "Stockholm"},
			},
			InsuranceIncidentRecords: []models.InsuranceIncidentRecord{
				{Date: utc(2019, time.August, 22), Type: "Kollision", Severity: "Mindre"},
				{Date: utc(2021, time.April, 3), Type: "Stenskott vindruta", Severity: "Mindre"},
			},
			RecallRecords: []models.RecallRecord{},
			DebtRecords:   []models.DebtRecord{},
			MileageReadings: []models.MileageReading{
				{Date: utc(2016, time.January, 25), Km: 13000, Source: "Besiktning"},
				{Date: utc(2017, time.February, 8), Km: 26000, Source: "Besiktning"},
				{Date: utc(2018, time.January, 30), Km: 39000, Source: "Besiktning"},
				{Date: utc(2019, time.February, 14), Km: 52000, Source: "Besiktning"},
				{Date: utc(2020, time.June, 22), Km: 65000, Source: "Service"},
				{Date: utc(2021, time.March, 3), Km: 78000, Source: "Besiktning"},
				{Date: utc(2022, time.August, 1), Km: 91000, Source: "Ägarebyte"},
				{Date: utc(2023, time.February, 20), Km: 117000, Source: "Besiktning"},
				{Date: utc(2025, time.January, 15), Km: 142000, Source: "Besiktning"},
			},
			SimilarCars: []models.MarketComparison{
				{Model: "Corolla", Year: 2014, PriceSEK: sek(75000)},
				{Model: "Corolla", Year: 2015, PriceSEK: sek(98000)},
				{Model: "Corolla", Year: 2016, PriceSEK: sek(120000)},
			},
			KnownIssues:      []string{"Vattenpump kan börja läcka vid 150 000 km"},
			SecurityFeatures: []string{"Startspärr"},
		}
	},

	"JKL012": func(now time.Time) *models.RawSignalSnapshot {
		return &models.RawSignalSnapshot{
			RegistrationNumber: "JKL012", Brand: "Tesla", Model: "Model 3", Year: 2023, Mileage: 12000,
			FuelType: ptr("Electric"), HorsePower: ptr(283), Color: ptr("Red"),
			InsuranceIncidents: ptr(0), ManufacturerRecalls: ptr(2),
			LastInspectionDate: ptr(now.AddDate(0, -1, 0)), InspectionPassed: ptr(true),
			MarketValueSEK: sekPtr(420000),

			NumberOfOwners: ptr(1), IsCompanyOwned: ptr(true),
			FirstRegistrationDate: ptr(utc(2023, time.September, 10)), IsImported: ptr(true),
			OutstandingDebtSEK: sekPtr(120000), TaxDebtSEK: sekPtr(0), HasPurchaseBlock: ptr(false),
			EuroClass: ptr("Euro 6d"), CO2EmissionsGPerKm: ptr(0), AnnualTaxSEK: sekPtr(360), BonusMalusApplies: ptr(true),
			AverageMarketPriceSEK: sekPtr(450000), DepreciationRatePercent: sekPtr(20),
			ServiceCount: ptr(3), AuthorizedServiceUsed: ptr(true),
			LastServiceDate: ptr(now.AddDate(0, -2, 0)), CompleteServiceHistory: ptr(true),
			TheftRiskCategory: ptr("Medium"), EuroNCAPRating: ptr(5), HasAlarmSystem: ptr(true),
			ReliabilityRating: sekPtr(75), CommonIssuesCount: ptr(2), AverageRepairCostSEK: sekPtr(12000),

			Inspections: []models.InspectionRecord{
				{Date: utc(2024, time.September, 18), Passed: true},
				{Date: utc(2025, time.September, 5), Passed: true},
			},
			ServiceRecords: []models.ServiceRecord{
				{Date: utc(2024, time.March, 12), Workshop: "Tesla Service Center Kungens Kurva", Type: "Underhållsservice", Mileage: 4000},
				{Date: utc(2024, time.September, 15), Workshop: "Tesla Service Center Kungens Kurva", Type: "Underhållsservice", Mileage: 8000},
				{Date: utc(2025, time.December, 3), Workshop: "Tesla Service Center Kungens Kurva", Type: "Underhållsservice", Mileage: 12000},
			},
			OwnerRecords: []models.OwnerRecord{
				{From: utc(2023, time.September, 10), IsCompany: true, City: "Stockholm"},
			},
			InsuranceIncidentRecords: []models.InsuranceIncidentRecord{},
			RecallRecords: []models.RecallRecord{
				{Date: utc(2024, time.January, 20), Description: "Uppdatering av autopilot-programvara", Remedied: true},
				{Date: utc(2025, time.June, 5), Description: "Kontroll av bromssystem", Remedied: false},
			},
			DebtRecords: []models.DebtRecord{
				{Type: "Leasingavtal", AmountSEK: sek(120000), Date: utc(2023, time.September, 10)},
			},
			MileageReadings: []models.MileageReading{
				{Date: utc(2024, time.September, 18), Km: 6000, Source: "Besiktning"},
				{Date: utc(2025, time.September, 5), Km: 12000, Source: "Besiktning"},
			},
			SimilarCars: []models.MarketComparison{
				{Model: "Model 3", Year: 2022, PriceSEK: sek(370000)},
				{Model: "Model 3", Year: 2023, PriceSEK: sek(425000)},
				{Model: "Model Y", Year: 2023, PriceSEK: sek(460000)},
			},
			KnownIssues: []string{
				"Sprickor i plastpaneler vid låga temperaturer",
				"Fantombromsning vid adaptiv farthållare",
			},
			SecurityFeatures: []string{"Tesla Sentry Mode", "GPS-spårning", "Startspärr", "Mobilapp-lås"},
		}
	},

	"MNO345": func(now time.Time) *models.RawSignalSnapshot {
		return &models.RawSignalSnapshot{
			RegistrationNumber: "MNO345", Brand: "Volkswagen", Model: "Golf", Year: 2010, Mileage: 245000,
			FuelType: ptr("Petrol"), HorsePower: ptr(105), Color: ptr("Blue"),
			InsuranceIncidents: ptr(3), ManufacturerRecalls: ptr(1),
			LastInspectionDate: ptr(now.AddDate(0, -26, 0)), InspectionPassed: ptr(false),
			MarketValueSEK: sekPtr(42000),

			NumberOfOwners: ptr(5), IsCompanyOwned: ptr(false),
			FirstRegistrationDate: ptr(utc(2010, time.April, 5)), IsImported: ptr(false),
			OutstandingDebtSEK: sekPtr(0), TaxDebtSEK: sekPtr(3500), HasPurchaseBlock: ptr(false),
			EuroClass: ptr("Euro 4"), CO2EmissionsGPerKm: ptr(169), AnnualTaxSEK: sekPtr(1478), BonusMalusApplies: ptr(false),
			AverageMarketPriceSEK: sekPtr(38000), DepreciationRatePercent: sekPtr(8),
			ServiceCount: ptr(4), AuthorizedServiceUsed: ptr(false),
			LastServiceDate: ptr(now.AddDate(0, -30, 0)), CompleteServiceHistory: ptr(false),
			TheftRiskCategory: ptr("High"), EuroNCAPRating: ptr(3), HasAlarmSystem: ptr(false),
			ReliabilityRating: sekPtr(55), CommonIssuesCount: ptr(6), AverageRepairCostSEK: sekPtr(9000),

			Inspections: []models.InspectionRecord{
				{Date: utc(2011, time.April, 18), Passed: true},
				{Date: utc(2012, time.April, 22), Passed: true},
				{Date: utc(2013, time.May, 6), Passed: true},
				{Date: utc(2014, time.May, 12), Passed: true},
				{Date: utc(2015, time.May, 20), Passed: true},
				{Date: utc(2017, time.June, 1), Passed: true},
				{Date: utc(2019, time.June, 15), Passed: false, Remark: ptr("Rostskador på bärande balkar")},
				{Date: utc(2021, time.July, 2), Passed: true},
				{Date: utc(2023, time.July, 18), Passed: false, Remark: ptr("Avgassystem läcker, stötdämpare slitna")},
				{Date: utc(2025, time.January, 10), Passed: false, Remark: ptr("Bromsskivor under gräns, oljeläckage")},
			},
			ServiceRecords: []models.ServiceRecord{
				{Date: utc(2012, time.May, 10), Workshop: "Bilverkstan Huddinge", Type: "Liten service", Mileage: 30000},
				{Date: utc(2014, time.June, 3), Workshop: "Bilverkstan Huddinge", Type: "Liten service", Mileage: 65000},
				{Date: utc(2018, time.March, 20), Workshop: "DIY", Type: "Oljebyte", Mileage: 130000},
				{Date: utc(2021, time.November, 5), Workshop: "DIY", Type: "Liten service", Mileage: 198000},
			},
			OwnerRecords: []models.OwnerRecord{
				{From: utc(2010, time.April, 5), To: ptr(utc(2012, time.August, 15)), City: "Malmö"},
				{From: utc(2012, time.August, 15), To: ptr(utc(2015, time.March, 1)), IsCompany: true, City: "Göteborg"},
				{From: utc(2015, time.March, 1), To: ptr(utc(2018, time.November, 20)), City: "Linköping"},
				{From: utc(2018, time.November, 20), To: ptr(utc(2022, time.June, 10)), City: "Uppsala"},
				{From: utc(2022, time.June, 10), City: "Huddinge"},
			},
			InsuranceIncidentRecords: []models.InsuranceIncidentRecord{
				{Date: utc(2014, time.December, 3), Type: "Kollision", Severity: "Allvarlig"},
				{Date: utc(2017, time.July, 19), Type: "Parkeringsskada", Severity: "Mindre"},
				{Date: utc(2022, time.October, 28), Type: "Stöld av katalysator", Severity: "Medel"},
			},
			RecallRecords: []models.RecallRecord{
				{Date: utc(2016, time.May, 10), Description: "Kontroll av krockkudde (Takata)", Remedied: false},
			},
			DebtRecords: []models.DebtRecord{
				{Type: "Skatteskuld", AmountSEK: sek(3500), Date: utc(2025, time.January, 15)},
			},
			// The 2022 reading drops below the 2021 one.
			MileageReadings: []models.MileageReading{
				{Date: utc(2011, time.April, 18), Km: 15000, Source: "Besiktning"},
				{Date: utc(2012, time.April, 22), Km: 30000, Source: "Besiktning"},
				{Date: utc(2013, time.May, 6), Km: 48000, Source: "Besiktning"},
				{Date: utc(2014, time.May, 12), Km: 65000, Source: "Besiktning"},
				{Date: utc(2015, time.May, 20), Km: 82000, Source: "Besiktning"},
				{Date: utc(2016, time.June, 8), Km: 98000, Source: "Service"},
				{Date: utc(2017, time.June, 1), Km: 115000, Source: "Besiktning"},
				{Date: utc(2018, time.March, 20), Km: 130000, Source: "Service"},
				{Date: utc(2019, time.June, 15), Km: 150000, Source: "Besiktning"},
				{Date: utc(2020, time.August, 10), Km: 168000, Source: "Service"},
				{Date: utc(2021, time.July, 2), Km: 198000, Source: "Besiktning"},
				{Date: utc(2022, time.June, 10), Km: 185000, Source: "Ägarebyte"},
				{Date: utc(2023, time.July, 18), Km: 218000, Source: "Besiktning"},
				{Date: utc(2025, time.January, 10), Km: 245000, Source: "Besiktning"},
			},
			SimilarCars: []models.MarketComparison{
				{Model: "Golf", Year: 2009, PriceSEK: sek(28000)},
				{Model: "Golf", Year: 2010, PriceSEK: sek(40000)},
				{Model: "Golf", Year: 2011, PriceSEK: sek(52000)},
			},
			KnownIssues: []string{
				"DSG-låda kräver regelbundet oljebyte",
				"Vattenpump/termostat vanligt problem",
				"Mekatronik-enhet kan fallera",
				"Turbo kan gå sönder vid 150 000 km",
				"Injektorer kan börja läcka",
				"Oljeförbrukning ökar efter 200 000 km",
			},
			SecurityFeatures: []string{},
		}
	},
}

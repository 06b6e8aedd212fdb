package services

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/carcheck/carcheck-backend/shared"
)

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	numberRegex     = regexp.MustCompile(`-?\d+(\.\d+)?`)
)

// UtilityService holds the text helpers used when extracting vehicle data
// from registry pages.
type UtilityService struct {
	serviceMetrics *shared.ServiceMetrics
}

func NewUtilityService() *UtilityService {
	return &UtilityService{
		serviceMetrics: shared.NewServiceMetrics("Utility_Service"),
	}
}

// NormalizeTextContent collapses whitespace, including non-breaking and thin
// spaces used as thousands separators.
func (s *UtilityService) NormalizeTextContent(text string) string {
	if text == "" {
		return ""
	}
	text = strings.NewReplacer("\u00a0", " ", "\u2009", " ", "\u202f", " ").Replace(text)
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))
}

// IsNotAvailable detects placeholders like "Uppgift saknas" or "-".
func (s *UtilityService) IsNotAvailable(text string) bool {
	switch strings.ToLower(s.NormalizeTextContent(text)) {
	case "", "-", "--", "n/a", "na", "saknas", "uppgift saknas", "okänd", "okänt",
		"unknown", "not available", "null", "nil":
		return true
	}
	return false
}

// NormalizeString returns nil for empty or placeholder values.
func (s *UtilityService) NormalizeString(text string) *string {
	text = s.NormalizeTextContent(text)
	if s.IsNotAvailable(text) {
		return nil
	}
	return &text
}

// ExtractDecimal reads the first number in text. Spaces are thousands
// separators and a comma is the decimal separator, as on Swedish pages.
func (s *UtilityService) ExtractDecimal(text string) *decimal.Decimal {
	start := time.Now()
	text = s.NormalizeTextContent(text)
	if s.IsNotAvailable(text) {
		return nil
	}

	cleaned := strings.ReplaceAll(text, " ", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	match := numberRegex.FindString(cleaned)
	if match == "" {
		s.serviceMetrics.RecordOperation("extract_decimal", false, time.Since(start))
		return nil
	}

	value, err := decimal.NewFromString(match)
	s.serviceMetrics.RecordOperation("extract_decimal", err == nil, time.Since(start))
	if err != nil {
		return nil
	}
	return &value
}

// ExtractInt reads the first number in text and truncates it.
func (s *UtilityService) ExtractInt(text string) *int {
	value := s.ExtractDecimal(text)
	if value == nil {
		return nil
	}
	return ptr(int(value.IntPart()))
}

// ExtractMileageKm reads an odometer value. Swedish "mil" are 10 km.
func (s *UtilityService) ExtractMileageKm(text string) *int {
	km := s.ExtractInt(text)
	if km == nil {
		return nil
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "mil") && !strings.Contains(lower, "km") {
		*km *= 10
	}
	return km
}

// ParseYesNo maps registry wording to a boolean. Unknown wording yields nil.
func (s *UtilityService) ParseYesNo(text string) *bool {
	switch strings.ToLower(s.NormalizeTextContent(text)) {
	case "ja", "yes", "true", "godkänd", "godkand", "passed", "företag", "company", "finns":
		return ptr(true)
	case "nej", "no", "false", "underkänd", "underkand", "failed", "privat", "private", "ingen", "none":
		return ptr(false)
	}
	return nil
}

// ParseDate supports the date formats seen on registry pages.
func (s *UtilityService) ParseDate(dateText string) *time.Time {
	dateText = s.NormalizeTextContent(dateText)
	if s.IsNotAvailable(dateText) {
		return nil
	}

	formats := []string{
		"2006-01-02",
		"2006-01-02T15:04:05Z07:00",
		"02/01/2006",
		"2/1/2006",
		"02.01.2006",
		"2 January 2006",
		"January 2, 2006",
		"Jan 2, 2006",
	}
	for _, format := range formats {
		if parsed, err := time.Parse(format, dateText); err == nil {
			parsed = parsed.UTC()
			return &parsed
		}
	}
	return nil
}

// TableRow is one label/value pair from a two-column facts table.
type TableRow struct {
	Label      string
	Value      string
	Confidence float64
}

// ParseHTMLTable extracts label/value rows from a table selection. Works on
// colly elements through their DOM field as well as goquery documents.
func (s *UtilityService) ParseHTMLTable(table *goquery.Selection) []TableRow {
	var rows []TableRow

	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, s.cleanCellText(cell.Text()))
		})
		if len(cells) < 2 {
			return
		}

		label, value := cells[0], cells[1]
		if label == "" && value == "" {
			return
		}
		rows = append(rows, TableRow{
			Label:      label,
			Value:      value,
			Confidence: s.calculateLabelConfidence(label),
		})
	})

	// Definition lists are common on registry pages too.
	table.Find("dt").Each(func(_ int, dt *goquery.Selection) {
		label := s.cleanCellText(dt.Text())
		value := s.cleanCellText(dt.NextFiltered("dd").Text())
		if label == "" {
			return
		}
		rows = append(rows, TableRow{
			Label:      label,
			Value:      value,
			Confidence: s.calculateLabelConfidence(label),
		})
	})

	return rows
}

// FindTableRowByLabel returns the row whose label best matches one of
// targetLabels. Weak matches are rejected.
func (s *UtilityService) FindTableRowByLabel(rows []TableRow, targetLabels []string) (TableRow, bool) {
	var bestMatch TableRow
	bestScore := 0.0

	for _, row := range rows {
		normalizedRowLabel := s.normalizeLabel(row.Label)
		for _, targetLabel := range targetLabels {
			score := s.calculateMatchScore(normalizedRowLabel, s.normalizeLabel(targetLabel)) * row.Confidence
			if score > bestScore {
				bestScore = score
				bestMatch = row
			}
		}
	}

	if bestScore < 0.5 {
		return TableRow{}, false
	}

	logrus.WithFields(logrus.Fields{
		"component": "UtilityService",
		"label":     bestMatch.Label,
		"score":     bestScore,
	}).Debug("Matched table row")
	return bestMatch, true
}

var vehicleFieldLabels = map[string][]string{
	"registration":       {"registreringsnummer", "reg nr", "registration number"},
	"brand":              {"fabrikat", "märke", "make", "brand"},
	"model":              {"modell", "model"},
	"year":               {"modellår", "årsmodell", "model year"},
	"mileage":            {"mätarställning", "miltal", "mileage", "odometer"},
	"fuel_type":          {"drivmedel", "bränsle", "fuel", "fuel type"},
	"horse_power":        {"hästkrafter", "motoreffekt", "horsepower"},
	"color":              {"färg", "colour", "color"},
	"first_registration": {"i trafik första gången", "första registrering", "first registration"},
	"last_inspection":    {"senaste besiktning", "last inspection"},
	"inspection_result":  {"besiktningsresultat", "inspection result"},
	"owners":             {"antal ägare", "number of owners", "owners"},
	"owner_type":         {"ägartyp", "owner type"},
	"imported":           {"importerad", "imported"},
	"euro_class":         {"miljöklass", "euro class", "emission class"},
	"co2":                {"koldioxidutsläpp", "co2 utsläpp", "co2 emissions"},
	"annual_tax":         {"fordonsskatt", "årsskatt", "annual tax"},
	"purchase_block":     {"köpspärr", "purchase block"},
	"outstanding_debt":   {"kvarvarande lån", "outstanding debt"},
	"tax_debt":           {"skatteskuld", "tax debt"},
}

// GetTargetLabelsForField returns the label variants a vehicle field may use.
func (s *UtilityService) GetTargetLabelsForField(fieldName string) []string {
	if labels, exists := vehicleFieldLabels[fieldName]; exists {
		return labels
	}
	return []string{fieldName}
}

func (s *UtilityService) normalizeLabel(label string) string {
	normalized := strings.ToLower(label)
	normalized = strings.NewReplacer(":", "", ".", "", ",", "", "(", "", ")", "", "-", " ", "_", " ").Replace(normalized)
	return strings.Join(strings.Fields(normalized), " ")
}

func (s *UtilityService) calculateMatchScore(label1, label2 string) float64 {
	if label1 == label2 {
		return 1.0
	}
	if strings.Contains(label1, label2) || strings.Contains(label2, label1) {
		return 0.8
	}

	words1 := strings.Fields(label1)
	words2 := strings.Fields(label2)
	if len(words1) == 0 || len(words2) == 0 {
		return 0.0
	}

	matchingWords := 0
	for _, word1 := range words1 {
		for _, word2 := range words2 {
			if word1 == word2 {
				matchingWords++
				break
			}
		}
	}

	// Jaccard similarity
	totalWords := len(words1) + len(words2) - matchingWords
	score := float64(matchingWords) / float64(totalWords)
	if matchingWords > 0 {
		score = math.Max(score, 0.4)
	}
	return score
}

func (s *UtilityService) calculateLabelConfidence(label string) float64 {
	normalizedLabel := s.normalizeLabel(label)
	if normalizedLabel == "" {
		return 0.0
	}

	confidence := 1.0
	if len([]rune(normalizedLabel)) < 3 {
		confidence -= 0.2
	}
	if s.IsNotAvailable(label) {
		confidence -= 0.5
	}
	return math.Max(confidence, 0.0)
}

func (s *UtilityService) cleanCellText(text string) string {
	return s.NormalizeTextContent(text)
}

func (s *UtilityService) GetServiceMetrics() *shared.ServiceMetrics {
	return s.serviceMetrics
}

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"

	"github.com/carcheck/carcheck-backend/models"
	"github.com/carcheck/carcheck-backend/shared"
)

const scraperUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// RegistryScraper reads vehicle facts from public registry pages at
// {base}/fordon/{registration}. Pages are plain HTML facts tables; when
// renderJavaScript is set the page is rendered in headless Chrome first.
type RegistryScraper struct {
	baseURL            string
	timeout            time.Duration
	transport          http.RoundTripper
	renderJavaScript   bool
	requestRateLimiter *shared.HTTPRequestRateLimiter
	utilityService     *UtilityService
	extractionMetrics  *shared.ExtractionMetrics
	httpMetrics        *shared.HTTPMetrics
}

func NewRegistryScraper(config shared.ProviderConfig, clientFactory *shared.HTTPClientFactory) *RegistryScraper {
	if clientFactory == nil {
		clientFactory = shared.NewHTTPClientFactory(config.HTTPRequestTimeout)
	}

	scraper := &RegistryScraper{
		baseURL:            strings.TrimRight(config.BaseURL, "/"),
		timeout:            config.HTTPRequestTimeout,
		transport:          clientFactory.Client(config.HTTPRequestTimeout).Transport,
		renderJavaScript:   config.RenderJavaScript,
		requestRateLimiter: shared.NewHTTPRequestRateLimiter(config.RequestRateLimit),
		utilityService:     NewUtilityService(),
		extractionMetrics:  shared.NewExtractionMetrics(),
		httpMetrics:        shared.NewHTTPMetrics(),
	}

	logrus.WithFields(logrus.Fields{
		"component":         "RegistryScraper",
		"base_url":          scraper.baseURL,
		"http_timeout":      config.HTTPRequestTimeout,
		"rate_limit":        config.RequestRateLimit,
		"render_javascript": config.RenderJavaScript,
	}).Info("Registry scraper initialized")

	return scraper
}

func (s *RegistryScraper) Name() string { return "scrape" }

func (s *RegistryScraper) ExtractionMetrics() *shared.ExtractionMetrics { return s.extractionMetrics }

func (s *RegistryScraper) Metrics() *shared.HTTPMetrics { return s.httpMetrics }

func (s *RegistryScraper) pageURL(registration string) string {
	return fmt.Sprintf("%s/fordon/%s", s.baseURL, url.PathEscape(registration))
}

func (s *RegistryScraper) FetchByRegistration(ctx context.Context, registration string) (*models.RawSignalSnapshot, error) {
	normalized := models.NormalizeRegistration(registration)
	if err := s.requestRateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var (
		rows  []TableRow
		found bool
		err   error
	)
	if s.renderJavaScript {
		rows, found, err = s.renderRows(ctx, s.pageURL(normalized))
	} else {
		rows, found, err = s.collectRows(ctx, s.pageURL(normalized))
	}
	if err != nil {
		return nil, err
	}
	if !found || len(rows) == 0 {
		return nil, nil
	}

	snapshot := s.buildSnapshot(normalized, rows)
	if snapshot.Brand == "" || snapshot.Model == "" || snapshot.Year == 0 {
		logrus.WithFields(logrus.Fields{
			"component":    "RegistryScraper",
			"registration": normalized,
			"rows":         len(rows),
		}).Warn("Registry page is missing identity fields")
		return nil, shared.NewProviderUnavailableError(
			"Registry page did not contain brand, model and year",
			"RegistryScraper", "FetchByRegistration", nil,
		)
	}
	return snapshot, nil
}

// collectRows fetches the page with colly. A 404 page means the registration
// is unknown and is reported as found=false.
func (s *RegistryScraper) collectRows(ctx context.Context, pageURL string) ([]TableRow, bool, error) {
	c := colly.NewCollector(
		colly.UserAgent(scraperUserAgent),
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
	)
	c.WithTransport(s.transport)
	if s.timeout > 0 {
		c.SetRequestTimeout(s.timeout)
	}

	var (
		rows       []TableRow
		statusCode int
		started    time.Time
	)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml")
		r.Headers.Set("Accept-Language", "sv-SE,sv;q=0.9,en;q=0.8")
		started = time.Now()
	})

	c.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		s.httpMetrics.RecordHTTPRequest(true, r.StatusCode, time.Since(started))
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
		s.httpMetrics.RecordHTTPRequest(statusCode == http.StatusNotFound, statusCode, time.Since(started))
	})

	c.OnHTML("table, dl", func(e *colly.HTMLElement) {
		rows = append(rows, s.utilityService.ParseHTMLTable(e.DOM)...)
	})

	err := c.Visit(pageURL)
	if statusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		return nil, false, shared.NewProviderUnavailableError(
			fmt.Sprintf("Registry page request failed with status %d", statusCode),
			"RegistryScraper", "collectRows", err,
		)
	}
	return rows, true, nil
}

// renderRows loads the page in headless Chrome and parses the rendered HTML.
func (s *RegistryScraper) renderRows(ctx context.Context, pageURL string) ([]TableRow, bool, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.Flag("mute-audio", true),
		chromedp.UserAgent(scraperUserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	if s.timeout > 0 {
		browserCtx, cancel = context.WithTimeout(browserCtx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		s.httpMetrics.RecordHTTPRequest(false, 0, time.Since(started))
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, false, shared.NewProviderUnavailableError(
			"Failed to render registry page",
			"RegistryScraper", "renderRows", err,
		)
	}
	s.httpMetrics.RecordHTTPRequest(true, http.StatusOK, time.Since(started))

	document, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, false, fmt.Errorf("parse rendered registry page: %w", err)
	}
	if document.Find("[data-not-found]").Length() > 0 {
		return nil, false, nil
	}

	var rows []TableRow
	document.Find("table, dl").Each(func(_ int, table *goquery.Selection) {
		rows = append(rows, s.utilityService.ParseHTMLTable(table)...)
	})
	return rows, true, nil
}

// field looks up one vehicle field and records whether it was present.
func (s *RegistryScraper) field(rows []TableRow, name string) (string, bool) {
	row, ok := s.utilityService.FindTableRowByLabel(rows, s.utilityService.GetTargetLabelsForField(name))
	found := ok && !s.utilityService.IsNotAvailable(row.Value)
	s.extractionMetrics.RecordField(name, found)
	if !found {
		return "", false
	}
	return row.Value, true
}

func (s *RegistryScraper) buildSnapshot(registration string, rows []TableRow) *models.RawSignalSnapshot {
	u := s.utilityService
	snapshot := &models.RawSignalSnapshot{RegistrationNumber: registration}

	if v, ok := s.field(rows, "brand"); ok {
		snapshot.Brand = v
	}
	if v, ok := s.field(rows, "model"); ok {
		snapshot.Model = v
	}
	if v, ok := s.field(rows, "year"); ok {
		if year := u.ExtractInt(v); year != nil {
			snapshot.Year = *year
		}
	}
	if v, ok := s.field(rows, "mileage"); ok {
		if km := u.ExtractMileageKm(v); km != nil {
			snapshot.Mileage = *km
		}
	}
	if v, ok := s.field(rows, "fuel_type"); ok {
		snapshot.FuelType = u.NormalizeString(v)
	}
	if v, ok := s.field(rows, "horse_power"); ok {
		snapshot.HorsePower = u.ExtractInt(v)
	}
	if v, ok := s.field(rows, "color"); ok {
		snapshot.Color = u.NormalizeString(v)
	}
	if v, ok := s.field(rows, "first_registration"); ok {
		snapshot.FirstRegistrationDate = u.ParseDate(v)
	}
	if v, ok := s.field(rows, "last_inspection"); ok {
		snapshot.LastInspectionDate = u.ParseDate(v)
	}
	if v, ok := s.field(rows, "inspection_result"); ok {
		snapshot.InspectionPassed = u.ParseYesNo(v)
	}
	if v, ok := s.field(rows, "owners"); ok {
		snapshot.NumberOfOwners = u.ExtractInt(v)
	}
	if v, ok := s.field(rows, "owner_type"); ok {
		snapshot.IsCompanyOwned = u.ParseYesNo(v)
	}
	if v, ok := s.field(rows, "imported"); ok {
		snapshot.IsImported = u.ParseYesNo(v)
	}
	if v, ok := s.field(rows, "euro_class"); ok {
		snapshot.EuroClass = u.NormalizeString(v)
	}
	if v, ok := s.field(rows, "co2"); ok {
		snapshot.CO2EmissionsGPerKm = u.ExtractInt(v)
	}
	if v, ok := s.field(rows, "annual_tax"); ok {
		snapshot.AnnualTaxSEK = u.ExtractDecimal(v)
	}
	if v, ok := s.field(rows, "purchase_block"); ok {
		snapshot.HasPurchaseBlock = u.ParseYesNo(v)
	}
	if v, ok := s.field(rows, "outstanding_debt"); ok {
		snapshot.OutstandingDebtSEK = u.ExtractDecimal(v)
	}
	if v, ok := s.field(rows, "tax_debt"); ok {
		snapshot.TaxDebtSEK = u.ExtractDecimal(v)
	}

	logrus.WithFields(logrus.Fields{
		"component":    "RegistryScraper",
		"registration": registration,
		"brand":        snapshot.Brand,
		"model":        snapshot.Model,
		"year":         snapshot.Year,
	}).Debug("Extracted vehicle facts from registry page")

	return snapshot
}

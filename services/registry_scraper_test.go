package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carcheck/carcheck-backend/shared"
)

const registryPage = `<!DOCTYPE html>
<html><body>
<h1>ABC123</h1>
<table class="facts">
	<tr><th>Fabrikat</th><td>Volvo</td></tr>
	<tr><th>Modell</th><td>XC60</td></tr>
	<tr><th>Modellår</th><td>2021</td></tr>
	<tr><th>Mätarställning</th><td>3&nbsp;500 mil</td></tr>
	<tr><th>Drivmedel</th><td>Diesel</td></tr>
	<tr><th>Hästkrafter</th><td>235 hk</td></tr>
	<tr><th>Färg</th><td>Svart</td></tr>
	<tr><th>I trafik första gången</th><td>2021-03-15</td></tr>
	<tr><th>Besiktningsresultat</th><td>Godkänd</td></tr>
	<tr><th>Antal ägare</th><td>1</td></tr>
	<tr><th>Ägartyp</th><td>Privat</td></tr>
</table>
<dl>
	<dt>Miljöklass</dt><dd>Euro 6d</dd>
	<dt>Koldioxidutsläpp</dt><dd>149 g/km</dd>
	<dt>Fordonsskatt</dt><dd>1 891 kr</dd>
	<dt>Köpspärr</dt><dd>Nej</dd>
	<dt>Skatteskuld</dt><dd>Uppgift saknas</dd>
</dl>
</body></html>`

func scraperConfig(baseURL string) shared.ProviderConfig {
	return shared.ProviderConfig{
		Mode:               shared.ProviderModeScrape,
		BaseURL:            baseURL,
		HTTPRequestTimeout: 2 * time.Second,
	}
}

func TestRegistryScraperExtractsFacts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fordon/ABC123", r.URL.Path)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(registryPage))
	}))
	defer server.Close()

	scraper := NewRegistryScraper(scraperConfig(server.URL), nil)
	snapshot, err := scraper.FetchByRegistration(context.Background(), "abc123")
	require.NoError(t, err)
	require.NotNil(t, snapshot)

	assert.Equal(t, "ABC123", snapshot.RegistrationNumber)
	assert.Equal(t, "Volvo", snapshot.Brand)
	assert.Equal(t, "XC60", snapshot.Model)
	assert.Equal(t, 2021, snapshot.Year)
	assert.Equal(t, 35000, snapshot.Mileage)
	assert.Equal(t, "Diesel", *snapshot.FuelType)
	assert.Equal(t, 235, *snapshot.HorsePower)
	assert.Equal(t, "Svart", *snapshot.Color)
	assert.Equal(t, time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC), *snapshot.FirstRegistrationDate)
	assert.True(t, *snapshot.InspectionPassed)
	assert.Equal(t, 1, *snapshot.NumberOfOwners)
	assert.False(t, *snapshot.IsCompanyOwned)
	assert.Equal(t, "Euro 6d", *snapshot.EuroClass)
	assert.Equal(t, 149, *snapshot.CO2EmissionsGPerKm)
	assert.Equal(t, "1891", snapshot.AnnualTaxSEK.String())
	assert.False(t, *snapshot.HasPurchaseBlock)

	assert.Nil(t, snapshot.TaxDebtSEK)
	assert.Nil(t, snapshot.LastInspectionDate)
	assert.Nil(t, snapshot.InsuranceIncidents)

	metrics := scraper.ExtractionMetrics()
	assert.Equal(t, 100.0, metrics.FieldSuccessRate("brand"))
	assert.Equal(t, 0.0, metrics.FieldSuccessRate("tax_debt"))
}

func TestRegistryScraperNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	snapshot, err := NewRegistryScraper(scraperConfig(server.URL), nil).
		FetchByRegistration(context.Background(), "ZZZ999")
	require.NoError(t, err)
	assert.Nil(t, snapshot)
}

func TestRegistryScraperServerErrorIsProviderUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewRegistryScraper(scraperConfig(server.URL), nil).
		FetchByRegistration(context.Background(), "ABC123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrProviderUnavailable))
}

func TestRegistryScraperRejectsPageWithoutIdentity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><table><tr><td>Färg</td><td>Röd</td></tr></table></body></html>`))
	}))
	defer server.Close()

	_, err := NewRegistryScraper(scraperConfig(server.URL), nil).
		FetchByRegistration(context.Background(), "ABC123")
	assert.ErrorIs(t, err, shared.ErrProviderUnavailable)
}

func TestUtilityServiceParsing(t *testing.T) {
	u := NewUtilityService()

	assert.Equal(t, "12.5", u.ExtractDecimal("12,5 l/100 km").String())
	assert.Equal(t, "450000", u.ExtractDecimal("450 000 kr").String())
	assert.Nil(t, u.ExtractDecimal("Uppgift saknas"))
	assert.Equal(t, 142000, *u.ExtractMileageKm("14 200 mil"))
	assert.Equal(t, 142000, *u.ExtractMileageKm("142 000 km"))
	assert.True(t, *u.ParseYesNo("Ja"))
	assert.Nil(t, u.ParseYesNo("kanske"))
	assert.Nil(t, u.ParseDate("-"))
	assert.Equal(t, time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), *u.ParseDate("2024-04-02"))
}

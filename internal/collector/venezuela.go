package collector

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/finatlas/finatlas/internal/domain"
)

const bcvURL = "http://www.bcv.org.ve"

// RateScraper fetches current official exchange rates. Implemented by
// BCVScraper; faked in tests.
type RateScraper interface {
	FetchRates(ctx context.Context) (map[string]string, error)
}

// VenezuelaSource provides Venezuela-specific entities: the central bank,
// rate monitors, exchanges, and casas de cambio. When a rate scraper is
// configured, the central-bank description is enriched with the current
// official rates.
type VenezuelaSource struct {
	scraper RateScraper
}

func NewVenezuelaSource(scraper RateScraper) *VenezuelaSource {
	return &VenezuelaSource{scraper: scraper}
}

func (s *VenezuelaSource) ID() string {
	return "venezuela"
}

func (s *VenezuelaSource) Fetch(ctx context.Context) ([]domain.Entity, error) {
	now := time.Now().UTC()

	bcvDescription := "Central bank of Venezuela, provides official exchange rates"
	if s.scraper != nil {
		rates, err := s.scraper.FetchRates(ctx)
		if err != nil {
			// Rates are an enrichment; the curated corpus still stands.
			log.Printf("BCV rate scrape failed, using static description: %v", err)
		} else if len(rates) > 0 {
			bcvDescription = fmt.Sprintf("%s. Current official rates: %s", bcvDescription, formatRates(rates))
		}
	}

	entities := []domain.Entity{
		{
			Name:                "Banco Central de Venezuela",
			Type:                domain.EntityTypeBank,
			Country:             "VE",
			Description:         bcvDescription,
			URL:                 bcvURL,
			Services:            []string{"exchange_rates", "monetary_policy"},
			SupportedCurrencies: []string{"VES", "USD", "EUR"},
			Rating:              5.0,
		},
		{
			Name:                "Monitor Dolar Venezuela",
			Type:                domain.EntityTypeFintech,
			Country:             "VE",
			Description:         "Real-time monitoring of exchange rates in Venezuela",
			APIAvailable:        true,
			URL:                 "https://monitordolarvenezuela.com",
			Services:            []string{"exchange_rates", "parallel_market"},
			SupportedCurrencies: []string{"VES", "USD"},
			Rating:              4.5,
		},
		{
			Name:                "Reserve",
			Type:                domain.EntityTypeFintech,
			Country:             "VE",
			Description:         "Venezuelan digital wallet and exchange platform",
			URL:                 "https://reserve.org",
			Services:            []string{"wallet", "exchange", "remittances"},
			SupportedCurrencies: []string{"VES", "USD"},
			Rating:              4.0,
		},
		{
			Name:                "Italcambio",
			Type:                domain.EntityTypeCasaCambio,
			Country:             "VE",
			Description:         "Currency exchange house in Venezuela",
			URL:                 "https://italcambio.com",
			Services:            []string{"currency_exchange", "remittances"},
			SupportedCurrencies: []string{"VES", "USD"},
			Rating:              4.0,
		},
		{
			Name:                "Binance P2P Venezuela",
			Type:                domain.EntityTypeExchange,
			Country:             "VE",
			Description:         "Peer-to-peer cryptocurrency trading in Venezuela",
			URL:                 "https://p2p.binance.com",
			Services:            []string{"p2p_trading", "crypto_exchange"},
			SupportedCurrencies: []string{"VES", "USD"},
			Rating:              4.0,
		},
	}

	for i := range entities {
		entities[i].LastUpdated = now
	}
	return entities, nil
}

func formatRates(rates map[string]string) string {
	parts := make([]string, 0, len(rates))
	for _, code := range []string{"USD", "EUR"} {
		if v, ok := rates[code]; ok {
			parts = append(parts, fmt.Sprintf("%s %s", code, v))
		}
	}
	return strings.Join(parts, ", ")
}

// BCVScraper scrapes the official rate board from the central bank website.
type BCVScraper struct {
	client    *http.Client
	userAgent string
	url       string
}

func NewBCVScraper(client *http.Client, userAgent string) *BCVScraper {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &BCVScraper{client: client, userAgent: userAgent, url: bcvURL}
}

// FetchRates parses the rate board. The page publishes one block per
// currency with the ISO code in a <span> and the rate in a <strong>.
func (s *BCVScraper) FetchRates(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from BCV", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse BCV page: %w", err)
	}

	rates := make(map[string]string)
	doc.Find("div.view-tipo-de-cambio-oficial-del-bcv div.field-content").Each(func(_ int, sel *goquery.Selection) {
		code := strings.TrimSpace(sel.Find("span").First().Text())
		value := strings.TrimSpace(sel.Find("strong").First().Text())
		if len(code) == 3 && value != "" {
			rates[strings.ToUpper(code)] = value
		}
	})

	if len(rates) == 0 {
		return nil, fmt.Errorf("no rates found on BCV page")
	}
	return rates, nil
}

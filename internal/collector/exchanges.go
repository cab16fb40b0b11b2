package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/finatlas/finatlas/internal/domain"
	"golang.org/x/time/rate"
)

const exchangeDirectoryURL = "https://api.coingecko.com/api/v3/exchanges"

// ExchangeSource collects cryptocurrency exchanges. It refreshes the curated
// corpus from a public exchange directory; when the directory is unreachable
// the curated corpus alone is the batch, so the source still succeeds
// offline.
type ExchangeSource struct {
	client   *http.Client
	limiter  *rate.Limiter
	queryURL string
}

type exchangeDirectoryEntry struct {
	Name       string  `json:"name"`
	Country    string  `json:"country"`
	URL        string  `json:"url"`
	TrustScore float64 `json:"trust_score"`
}

func NewExchangeSource(client *http.Client) *ExchangeSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ExchangeSource{
		client: client,
		// The public directory throttles aggressively; stay well under.
		limiter:  rate.NewLimiter(rate.Every(2*time.Second), 1),
		queryURL: exchangeDirectoryURL,
	}
}

func (s *ExchangeSource) ID() string {
	return "exchanges"
}

func (s *ExchangeSource) Fetch(ctx context.Context) ([]domain.Entity, error) {
	now := time.Now().UTC()
	entities := curatedExchanges()

	live, err := s.fetchDirectory(ctx)
	if err != nil {
		log.Printf("exchange directory fetch failed, using curated corpus: %v", err)
	} else {
		entities = mergeDirectory(entities, live)
	}

	for i := range entities {
		entities[i].LastUpdated = now
	}
	return entities, nil
}

func (s *ExchangeSource) fetchDirectory(ctx context.Context) ([]exchangeDirectoryEntry, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.queryURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from exchange directory", resp.StatusCode)
	}

	var entries []exchangeDirectoryEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode exchange directory: %w", err)
	}
	return entries, nil
}

// mergeDirectory enriches curated exchanges with live directory data,
// matching on name. Directory entries outside the curated set are ignored;
// the corpus decides which exchanges are in scope.
func mergeDirectory(entities []domain.Entity, entries []exchangeDirectoryEntry) []domain.Entity {
	byName := make(map[string]exchangeDirectoryEntry, len(entries))
	for _, entry := range entries {
		byName[strings.ToLower(entry.Name)] = entry
	}

	for i, e := range entities {
		entry, ok := byName[strings.ToLower(e.Name)]
		if !ok {
			continue
		}
		if entry.URL != "" {
			entities[i].URL = entry.URL
		}
		if entry.TrustScore > 0 {
			// Directory trust scores are on a 10-point scale.
			entities[i].Rating = entry.TrustScore / 2
		}
	}
	return entities
}

func curatedExchanges() []domain.Entity {
	return []domain.Entity{
		{
			Name:                "Binance",
			Type:                domain.EntityTypeExchange,
			Country:             "US",
			Description:         "Global cryptocurrency exchange with spot and P2P markets",
			APIAvailable:        true,
			URL:                 "https://www.binance.com",
			Services:            []string{"trading", "deposits", "withdrawals"},
			SupportedCurrencies: []string{"BTC", "ETH", "USDT", "USD", "BRL", "ARS"},
			Rating:              4.5,
		},
		{
			Name:                "Coinbase",
			Type:                domain.EntityTypeExchange,
			Country:             "US",
			Description:         "US-regulated cryptocurrency exchange and custodian",
			APIAvailable:        true,
			URL:                 "https://www.coinbase.com",
			Services:            []string{"trading", "custody", "deposits", "withdrawals"},
			SupportedCurrencies: []string{"BTC", "ETH", "USDC", "USD"},
			Rating:              4.4,
		},
		{
			Name:                "Kraken",
			Type:                domain.EntityTypeExchange,
			Country:             "US",
			Description:         "Cryptocurrency exchange with fiat on-ramps",
			APIAvailable:        true,
			URL:                 "https://www.kraken.com",
			Services:            []string{"trading", "staking", "deposits", "withdrawals"},
			SupportedCurrencies: []string{"BTC", "ETH", "USD", "EUR", "CAD"},
			Rating:              4.3,
		},
		{
			Name:                "Bitso",
			Type:                domain.EntityTypeExchange,
			Country:             "MX",
			Description:         "Latin American cryptocurrency exchange with remittance rails",
			APIAvailable:        true,
			URL:                 "https://bitso.com",
			Services:            []string{"trading", "remittances", "deposits", "withdrawals"},
			SupportedCurrencies: []string{"BTC", "ETH", "USD", "MXN", "ARS", "BRL", "COP"},
			Rating:              4.4,
		},
		{
			Name:                "Mercado Bitcoin",
			Type:                domain.EntityTypeExchange,
			Country:             "BR",
			Description:         "Brazilian cryptocurrency exchange",
			APIAvailable:        true,
			URL:                 "https://www.mercadobitcoin.com.br",
			Services:            []string{"trading", "deposits", "withdrawals"},
			SupportedCurrencies: []string{"BTC", "ETH", "BRL"},
			Rating:              4.2,
		},
	}
}

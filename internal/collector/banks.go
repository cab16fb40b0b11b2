package collector

import (
	"context"
	"time"

	"github.com/finatlas/finatlas/internal/domain"
)

// BankSource provides the curated directory of major banking institutions
// across the Americas. Aggregator APIs gate their institution directories
// behind credentials, so this corpus is maintained by hand and refreshed on
// the banks schedule.
type BankSource struct{}

func NewBankSource() *BankSource {
	return &BankSource{}
}

func (s *BankSource) ID() string {
	return "banks"
}

func (s *BankSource) Fetch(ctx context.Context) ([]domain.Entity, error) {
	now := time.Now().UTC()
	entities := []domain.Entity{
		{
			Name:                "Bank of America",
			Type:                domain.EntityTypeBank,
			Country:             "US",
			Description:         "Major US retail and commercial bank",
			APIAvailable:        true,
			URL:                 "https://www.bankofamerica.com",
			Services:            []string{"accounts", "transactions", "wire_transfers"},
			SupportedCurrencies: []string{"USD"},
			Rating:              4.1,
		},
		{
			Name:                "JPMorgan Chase",
			Type:                domain.EntityTypeBank,
			Country:             "US",
			Description:         "Largest US bank by assets, retail and investment banking",
			APIAvailable:        true,
			URL:                 "https://www.chase.com",
			Services:            []string{"accounts", "transactions", "wire_transfers"},
			SupportedCurrencies: []string{"USD"},
			Rating:              4.2,
		},
		{
			Name:                "BBVA Mexico",
			Type:                domain.EntityTypeBank,
			Country:             "MX",
			Description:         "Largest bank in Mexico, retail and corporate banking",
			APIAvailable:        true,
			URL:                 "https://www.bbva.mx",
			Services:            []string{"accounts", "transactions", "remittance_payout"},
			SupportedCurrencies: []string{"MXN", "USD"},
			Rating:              4.0,
		},
		{
			Name:                "Banco do Brasil",
			Type:                domain.EntityTypeBank,
			Country:             "BR",
			Description:         "State-owned Brazilian bank with nationwide coverage",
			APIAvailable:        true,
			URL:                 "https://www.bb.com.br",
			Services:            []string{"accounts", "transactions", "pix"},
			SupportedCurrencies: []string{"BRL"},
			Rating:              4.0,
		},
		{
			Name:                "Bancolombia",
			Type:                domain.EntityTypeBank,
			Country:             "CO",
			Description:         "Largest commercial bank in Colombia",
			APIAvailable:        true,
			URL:                 "https://www.bancolombia.com",
			Services:            []string{"accounts", "transactions", "remittance_payout"},
			SupportedCurrencies: []string{"COP", "USD"},
			Rating:              4.1,
		},
		{
			Name:                "Banco de Venezuela",
			Type:                domain.EntityTypeBank,
			Country:             "VE",
			Description:         "State-owned universal bank, largest branch network in Venezuela",
			URL:                 "https://www.bancodevenezuela.com",
			Services:            []string{"accounts", "transactions"},
			SupportedCurrencies: []string{"VES"},
			Rating:              3.8,
		},
		{
			Name:                "Banco de Chile",
			Type:                domain.EntityTypeBank,
			Country:             "CL",
			Description:         "Leading private bank in Chile",
			APIAvailable:        true,
			URL:                 "https://www.bancochile.cl",
			Services:            []string{"accounts", "transactions", "wire_transfers"},
			SupportedCurrencies: []string{"CLP", "USD"},
			Rating:              4.2,
		},
		{
			Name:                "Banco Galicia",
			Type:                domain.EntityTypeBank,
			Country:             "AR",
			Description:         "Major private bank in Argentina",
			APIAvailable:        true,
			URL:                 "https://www.bancogalicia.com",
			Services:            []string{"accounts", "transactions"},
			SupportedCurrencies: []string{"ARS", "USD"},
			Rating:              3.9,
		},
	}

	for i := range entities {
		entities[i].LastUpdated = now
	}
	return entities, nil
}

package collector

import (
	"context"
	"time"

	"github.com/finatlas/finatlas/internal/domain"
)

// RemittanceSource provides the curated corpus of major money-transfer
// services operating across the Americas. The corpus is maintained by hand;
// most of these providers expose no public directory API.
type RemittanceSource struct{}

func NewRemittanceSource() *RemittanceSource {
	return &RemittanceSource{}
}

func (s *RemittanceSource) ID() string {
	return "remittance"
}

func (s *RemittanceSource) Fetch(ctx context.Context) ([]domain.Entity, error) {
	now := time.Now().UTC()
	entities := []domain.Entity{
		{
			Name:                "Western Union",
			Type:                domain.EntityTypeFintech,
			Country:             "US",
			Description:         "Global money transfer and remittance service",
			URL:                 "https://www.westernunion.com",
			Services:            []string{"remittances", "money_transfer", "bill_payment"},
			SupportedCurrencies: []string{"USD", "MXN", "COP", "BRL", "VES"},
			Rating:              4.5,
		},
		{
			Name:                "MoneyGram",
			Type:                domain.EntityTypeFintech,
			Country:             "US",
			Description:         "International money transfer service",
			URL:                 "https://www.moneygram.com",
			Services:            []string{"remittances", "money_transfer"},
			SupportedCurrencies: []string{"USD", "MXN", "COP", "BRL"},
			Rating:              4.3,
		},
		{
			Name:                "Remitly",
			Type:                domain.EntityTypeFintech,
			Country:             "US",
			Description:         "Digital remittance service for Latin America",
			URL:                 "https://www.remitly.com",
			Services:            []string{"remittances", "digital_transfer"},
			SupportedCurrencies: []string{"USD", "MXN", "COP", "PEN", "BRL"},
			Rating:              4.7,
		},
		{
			Name:                "Wise",
			Type:                domain.EntityTypeFintech,
			Country:             "US",
			Description:         "Multi-currency account and international transfer service",
			URL:                 "https://wise.com",
			Services:            []string{"remittances", "multi_currency_account", "debit_card"},
			SupportedCurrencies: []string{"USD", "MXN", "BRL", "CLP", "COP"},
			Rating:              4.8,
		},
		{
			Name:                "Ria Money Transfer",
			Type:                domain.EntityTypeFintech,
			Country:             "US",
			Description:         "Money transfer service covering 160+ countries",
			URL:                 "https://www.riamoneytransfer.com",
			Services:            []string{"remittances", "money_transfer"},
			SupportedCurrencies: []string{"USD", "MXN", "COP", "VES"},
			Rating:              4.4,
		},
	}

	for i := range entities {
		entities[i].LastUpdated = now
	}
	return entities, nil
}

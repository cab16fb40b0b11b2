package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// EntityType classifies a financial institution record.
type EntityType string

const (
	EntityTypeBank       EntityType = "bank"
	EntityTypeExchange   EntityType = "exchange"
	EntityTypeFintech    EntityType = "fintech"
	EntityTypeCasaCambio EntityType = "casa_cambio"
	EntityTypeWallet     EntityType = "wallet"
	EntityTypeDefi       EntityType = "defi"
)

// AllEntityTypes lists every known entity type.
var AllEntityTypes = []EntityType{
	EntityTypeBank,
	EntityTypeExchange,
	EntityTypeFintech,
	EntityTypeCasaCambio,
	EntityTypeWallet,
	EntityTypeDefi,
}

// ParseEntityType parses a raw type string, case-insensitively.
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllEntityTypes {
		if t == known {
			return t, nil
		}
	}
	return "", ErrInvalidEntityType
}

// Entity is a financial institution or service record as collected from a
// source. Identity is derived from (name, country, type), never assigned
// by the source.
type Entity struct {
	Name                string         `json:"name"`
	Type                EntityType     `json:"type"`
	Country             string         `json:"country"`
	Description         string         `json:"description,omitempty"`
	Services            []string       `json:"services,omitempty"`
	SupportedCurrencies []string       `json:"supported_currencies,omitempty"`
	APIAvailable        bool           `json:"api_available"`
	URL                 string         `json:"url,omitempty"`
	Rating              float64        `json:"rating,omitempty"`
	LastUpdated         time.Time      `json:"last_updated,omitempty"`
	Fees                map[string]any `json:"fees,omitempty"`
}

// ID derives the stable identity hash for the entity. Two records with the
// same (name, country, type) after case folding collide to one id, which is
// both the deduplication rule and the upsert key.
func (e Entity) ID() string {
	return DeriveEntityID(e.Name, e.Country, string(e.Type))
}

// DeriveEntityID computes the identity hash from the raw triplet. The hash is
// stable across runs and processes for the same input.
func DeriveEntityID(name, country, entityType string) string {
	key := strings.ToLower(strings.TrimSpace(name)) + "|" +
		strings.ToLower(strings.TrimSpace(country)) + "|" +
		strings.ToLower(strings.TrimSpace(entityType))
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}

// Metadata is the small projection of an entity persisted alongside each
// indexed record. It must always be re-derivable from the source entity.
type Metadata struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Country      string `json:"country"`
	APIAvailable bool   `json:"api_available"`
	URL          string `json:"url"`
}

// Record is a persisted entry in the vector store. ID equals the entity id,
// or "<id>#chunk_<i>" when the document was split.
type Record struct {
	ID        string
	Document  string
	Metadata  Metadata
	Embedding []float32
	UpdatedAt time.Time
}

// Match is a record returned from a similarity query together with its
// distance to the query vector. Lower distance means closer.
type Match struct {
	Record
	Distance float64
}

// StoreStats describes the vector store contents.
type StoreStats struct {
	Name     string            `json:"name"`
	Count    int64             `json:"count"`
	Metadata map[string]string `json:"metadata"`
}

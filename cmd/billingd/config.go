package main

import "time"

// Storage backends.
const (
	backendMemory   = "memory"
	backendPostgres = "postgres"
	backendMongo    = "mongo"
	backendRedis    = "redis"
)

// appConfig selects backends and service-level settings. Each
// infrastructure package reads its own Config on top of this.
type appConfig struct {
	// Storage keeps subscriptions and payment intents: memory or postgres.
	Storage string `env:"STORAGE_BACKEND" envDefault:"memory"`
	// InvoiceStore overrides where invoices live: memory, postgres or mongo.
	// Empty follows Storage.
	InvoiceStore string `env:"INVOICE_STORE"`
	// InvoiceSequence overrides the per-subject daily counter: memory,
	// postgres or redis. Empty follows Storage.
	InvoiceSequence string `env:"INVOICE_SEQUENCE"`

	TariffsFile string `env:"TARIFFS_FILE"`

	NotifyLanguage   string            `env:"NOTIFY_LANGUAGE" envDefault:"ru"`
	NotifyRecipients map[string]string `env:"NOTIFY_RECIPIENTS"` // subject:email pairs

	HealthTimeout time.Duration `env:"HEALTH_TIMEOUT" envDefault:"3s"`
}

func (c appConfig) invoiceStore() string {
	if c.InvoiceStore != "" {
		return c.InvoiceStore
	}
	return c.Storage
}

func (c appConfig) invoiceSequence() string {
	if c.InvoiceSequence != "" {
		return c.InvoiceSequence
	}
	return c.Storage
}

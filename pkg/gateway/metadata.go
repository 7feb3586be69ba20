package gateway

import "github.com/dmitrymomot/tariffledger/pkg/tariff"

const (
	metaSubjectID     = "subject_id"
	metaTariffCode    = "tariff_code"
	metaPeriod        = "period"
	metaInvoiceNumber = "invoice_number"
)

// Metadata is round-tripped through the provider so an asynchronous verdict
// can be correlated without any other context.
type Metadata struct {
	SubjectID     string        `json:"subject_id"`
	TariffCode    string        `json:"tariff_code"`
	Period        tariff.Period `json:"period"`
	InvoiceNumber string        `json:"invoice_number"`
}

// Map flattens metadata into provider custom data.
func (m Metadata) Map() map[string]string {
	return map[string]string{
		metaSubjectID:     m.SubjectID,
		metaTariffCode:    m.TariffCode,
		metaPeriod:        string(m.Period),
		metaInvoiceNumber: m.InvoiceNumber,
	}
}

// MetadataFromMap is the inverse of Map. Unknown keys are ignored.
func MetadataFromMap(values map[string]string) Metadata {
	return Metadata{
		SubjectID:     values[metaSubjectID],
		TariffCode:    values[metaTariffCode],
		Period:        tariff.Period(values[metaPeriod]),
		InvoiceNumber: values[metaInvoiceNumber],
	}
}

func metadataFromAny(values map[string]any) Metadata {
	flat := make(map[string]string, len(values))
	for k, v := range values {
		if s, ok := v.(string); ok {
			flat[k] = s
		}
	}
	return MetadataFromMap(flat)
}

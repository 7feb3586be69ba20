// Package validator provides declarative validation rules.
//
// A Rule pairs a Check func with the field, code and message reported on
// failure. Apply evaluates rules and aggregates failures into
// ValidationErrors, which implements error and can be recovered with
// ExtractValidationErrors.
//
//	err := validator.Apply(
//	    validator.RequiredString("tariff", req.Tariff),
//	    validator.InList("period", req.Period, []string{"monthly", "quarterly", "yearly"}),
//	    validator.ValidTaxID("identifier", req.Identifier),
//	)
//	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
//	    // report field-level messages
//	}
//
// ValidTaxID checks the length and control digits of a Russian taxpayer
// number (INN): 10 digits for organisations, 12 for individuals.
package validator

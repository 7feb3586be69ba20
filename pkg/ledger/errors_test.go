package ledger_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/tariffledger/pkg/ledger"
)

func TestCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"sentinel", ledger.ErrQuotaExhausted, ledger.CodeQuotaExhausted},
		{"wrapped", fmt.Errorf("lead for S1: %w", ledger.ErrNotFound), ledger.CodeNotFound},
		{"joined", errors.Join(ledger.ErrGateway, errors.New("timeout")), ledger.CodeGatewayError},
		{"foreign", errors.New("disk full"), ledger.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ledger.Code(tt.err))
		})
	}
}

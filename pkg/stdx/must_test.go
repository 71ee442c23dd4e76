package stdx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errTest = errors.New("test error")

func TestMust1(t *testing.T) {
	tests := []struct {
		name  string
		value string
		err   error
	}{
		{"no error", "value", nil},
		{"with error", "value", errTest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err != nil {
				assert.PanicsWithError(t, tt.err.Error(), func() { Must1(tt.value, tt.err) })
				return
			}
			assert.Equal(t, tt.value, Must1(tt.value, tt.err))
		})
	}
}

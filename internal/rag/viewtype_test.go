package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseViewType(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    ViewType
		wantErr bool
	}{
		{"provider", "provider", ViewProvider, false},
		{"patient", "patient", ViewPatient, false},
		{"uppercase", "PROVIDER", ViewProvider, false},
		{"surrounding whitespace", "  patient \n", ViewPatient, false},
		{"empty", "", 0, true},
		{"unknown", "clinician", 0, true},
		{"partial match", "provide", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseViewType(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidViewType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestViewType_Valid(t *testing.T) {
	assert.True(t, ViewProvider.Valid())
	assert.True(t, ViewPatient.Valid())
	assert.False(t, ViewType(0).Valid())
	assert.False(t, ViewType(3).Valid())
}

func TestViewType_String(t *testing.T) {
	assert.Equal(t, "provider", ViewProvider.String())
	assert.Equal(t, "patient", ViewPatient.String())
	assert.Equal(t, "ViewType(0)", ViewType(0).String())
}

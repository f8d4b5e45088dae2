package rag

import (
	"fmt"
	"strings"
)

// ViewType is the persona applied to generated answers. It is a closed
// variant: exactly Provider and Patient are valid, validated at the boundary
// and handled exhaustively in the prompt assembler.
type ViewType int

const (
	// ViewProvider produces clinical, evidence-based, formally toned answers.
	ViewProvider ViewType = iota + 1

	// ViewPatient produces empathetic, plain-language answers.
	ViewPatient
)

// ParseViewType parses the wire representation of a view type.
// Fails with ErrInvalidViewType for anything outside {provider, patient}.
func ParseViewType(s string) (ViewType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "provider":
		return ViewProvider, nil
	case "patient":
		return ViewPatient, nil
	default:
		return 0, fmt.Errorf("%w: %q (must be \"provider\" or \"patient\")", ErrInvalidViewType, s)
	}
}

// Valid reports whether v is one of the two defined personas.
func (v ViewType) Valid() bool {
	return v == ViewProvider || v == ViewPatient
}

// String returns the wire representation.
func (v ViewType) String() string {
	switch v {
	case ViewProvider:
		return "provider"
	case ViewPatient:
		return "patient"
	default:
		return fmt.Sprintf("ViewType(%d)", int(v))
	}
}

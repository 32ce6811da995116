package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tanahair/water-harvest/internal/domain"
)

func TestStatusForStyle(t *testing.T) {
	tests := []struct {
		name  string
		style string
		want  string
	}{
		{"green background", "background:green", "Paras Normal"},
		{"orange background", "background:orange", "Paras Waspada"},
		{"yellow background", "background:yellow", "Paras Amaran"},
		{"red background", "background:red", "Paras Kritikal"},
		{"background-color form", "background-color:red;color:white", "Paras Kritikal"},
		{"uppercase style", "BACKGROUND:GREEN", "Paras Normal"},
		{"embedded in longer style", "text-align:center;background:orange;font-weight:bold", "Paras Waspada"},
		{"unknown color", "background:purple", ""},
		{"no background at all", "font-size:12px", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.StatusForStyle(tt.style))
		})
	}
}

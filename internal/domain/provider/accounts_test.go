package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAccountKeys(t *testing.T) {
	testCases := []struct {
		name       string
		raw        string
		entities   []string
		hasNumeric bool
	}{
		{"MixedWithNumeric", "MB|Multibanco; 12345|Store", []string{"MB", "12345"}, true},
		{"LowercaseAndSpaces", " mbway|Phone ;ccard|Card ", []string{"MBWAY", "CCARD"}, false},
		{"EmptyParts", "MB|x;;  ; CCARD|y;", []string{"MB", "CCARD"}, false},
		{"NoLabel", "PIX", []string{"PIX"}, false},
		{"Empty", "", []string{}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			set := ParseAccountKeys(tc.raw)
			assert.Equal(t, tc.entities, set.Entities())
			assert.Equal(t, tc.hasNumeric, set.HasNumericEntity())
		})
	}
}

func TestAccountSet_Accepts(t *testing.T) {
	set := ParseAccountKeys("12345|Store; CCARD|Card")

	assert.True(t, set.Accepts("CCARD"))
	assert.True(t, set.Accepts("ccard"))
	assert.True(t, set.Accepts("12345"))
	assert.True(t, set.Accepts("MB"), "numeric entity admits Multibanco")
	assert.False(t, set.Accepts("MBWAY"))

	withoutNumeric := ParseAccountKeys("CCARD|Card")
	assert.False(t, withoutNumeric.Accepts("MB"))
}

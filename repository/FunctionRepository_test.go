package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSerialNumber(t *testing.T) {
	assert.Equal(t, "BOX/P7/0001", GenerateSerialNumber("P7", 1))
	assert.Equal(t, "BOX/P12/0042", GenerateSerialNumber(" p12 ", 42))
	assert.Equal(t, "BOX/GEN/0003", GenerateSerialNumber("", 3))
	assert.Equal(t, "BOX/P1/12345", GenerateSerialNumber("P1", 12345))
}

func TestGenerateQRPayload(t *testing.T) {
	assert.Equal(t, "BOXTRACK|BOX/P7/0001|BX-100", GenerateQRPayload("BOX/P7/0001", "BX-100"))
}

func TestNormalizeBoxName(t *testing.T) {
	assert.Equal(t, "Bathroom Pod Type A", NormalizeBoxName("bathroom   pod TYPE a"))
	assert.Equal(t, "", NormalizeBoxName("   "))
	assert.Equal(t, "Utility Box", NormalizeBoxName("UTILITY BOX"))
}

func TestGenerateRandomCodeShape(t *testing.T) {
	code := GenerateRandomCode()
	assert.Len(t, code, 7)
	assert.Regexp(t, `^[A-Z]{2}\d{5}$`, code)
}

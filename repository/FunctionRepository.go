package repository

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// GenerateRandomCode returns a short collision-avoidance code used to make
// stored upload names unique beyond their timestamp.
func GenerateRandomCode() string {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	letters := "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	prefix := string(letters[rng.Intn(len(letters))]) + string(letters[rng.Intn(len(letters))])
	number := rng.Intn(90000) + 10000

	return fmt.Sprintf("%s%d", prefix, number)
}

// GenerateSerialNumber builds the box serial in the format
// "BOX/<PROJECT>/<0001>" from the project prefix and a running sequence.
func GenerateSerialNumber(projectPrefix string, sequenceNumber int) string {
	formattedPrefix := strings.ToUpper(strings.TrimSpace(projectPrefix))
	if formattedPrefix == "" {
		formattedPrefix = "GEN"
	}

	// Sequence is zero-padded to 4 digits (0001, 0002, ...)
	formattedSequence := fmt.Sprintf("%04d", sequenceNumber)

	return "BOX/" + formattedPrefix + "/" + formattedSequence
}

// GenerateQRPayload is the string encoded into a box QR label. Scanners post
// it back verbatim to resolve the box.
func GenerateQRPayload(serialNumber, boxTag string) string {
	return fmt.Sprintf("BOXTRACK|%s|%s", serialNumber, boxTag)
}

// NormalizeBoxName title-cases a free-text box name for display, collapsing
// repeated whitespace.
func NormalizeBoxName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	titler := cases.Title(language.English)
	for i, f := range fields {
		fields[i] = titler.String(strings.ToLower(f))
	}
	return strings.Join(fields, " ")
}

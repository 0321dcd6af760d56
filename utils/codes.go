package utils

import (
	"math/rand"
)

// Join codes skip ambiguous characters (I, O, 0, 1) so organizers can read
// them out loud without spelling.
const joinCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const JoinCodeLength = 6

// GenerateJoinCode returns one 6-character join code.
func GenerateJoinCode() string {
	code := make([]byte, JoinCodeLength)
	for i := range code {
		code[i] = joinCodeCharset[rand.Intn(len(joinCodeCharset))]
	}
	return string(code)
}

// GenerateBulkCodes returns count unique join codes.
func GenerateBulkCodes(count int) []string {
	seen := make(map[string]struct{}, count)
	codes := make([]string, 0, count)
	for len(codes) < count {
		code := GenerateJoinCode()
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes
}

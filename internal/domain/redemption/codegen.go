package redemption

import (
	"crypto/rand"
	"strings"
)

// codeAlphabet omits 0/O and 1/I so codes survive being read aloud
// or typed from paper.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	codePrefix    = "RF"
	codeGroups    = 3
	codeGroupSize = 4
	codeSeparator = "-"
)

// newCode returns a code like RF-7MKP-2XQA-9HWN
func newCode() string {
	raw := make([]byte, codeGroups*codeGroupSize)
	_, _ = rand.Read(raw)

	var b strings.Builder
	b.WriteString(codePrefix)
	for i, c := range raw {
		if i%codeGroupSize == 0 {
			b.WriteString(codeSeparator)
		}
		b.WriteByte(codeAlphabet[int(c)%len(codeAlphabet)])
	}
	return b.String()
}

// NormalizeCode uppercases and strips spaces from user input
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

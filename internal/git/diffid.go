package git

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// Fingerprint hashes a unified diff after dropping the parts that change when
// a patch is rebased: hunk line numbers and blob index lines.
func Fingerprint(patch string) string {
	lines := strings.Split(patch, "\n")
	var b strings.Builder
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "@@"):
			line = "@@"
		case strings.HasPrefix(line, "index "):
			line = ""
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

package transfers

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const codeSuffixLen = 4

var codeAlphabet = []byte("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ")

// newCode builds a human-facing transfer code from the timestamp plus a
// random suffix, e.g. TR-LX2M91-7QK4. Callers retry on the rare collision.
func newCode(now time.Time) (string, error) {
	stamp := strings.ToUpper(strconv.FormatInt(now.Unix(), 36))

	suffix := make([]byte, codeSuffixLen)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("generating code suffix: %w", err)
	}
	for i := range suffix {
		suffix[i] = codeAlphabet[int(suffix[i])%len(codeAlphabet)]
	}

	return fmt.Sprintf("TR-%s-%s", stamp, suffix), nil
}

// Package codec implements the reversible transform applied to activation
// files. It provides integrity checking and casual tamper resistance only:
// the key is a fixed constant shipped with the application, so this is
// obfuscation, not encryption. Do not rely on it for confidentiality.
package codec

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	secretKey   = "YRL2025-SECURE-ACTIVATION-KEY-XZ9K"
	magicHeader = "YRLENC1"
	separator   = "|"
)

var (
	// ErrFormat means the token is not in this codec's format: missing magic
	// header, bad base64 or missing internal separators.
	ErrFormat = errors.New("codec: invalid format")
	// ErrIntegrity means the embedded checksum does not match the payload,
	// i.e. the token was corrupted or edited.
	ErrIntegrity = errors.New("codec: checksum mismatch")
)

// checksum folds the payload into a 32-bit rolling polynomial hash and
// renders it as 8 base-36 uppercase characters.
func checksum(data []byte) string {
	var h int32
	for _, c := range data {
		h = (h << 5) - h + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	s := strings.ToUpper(strconv.FormatInt(v, 36))
	for len(s) < 8 {
		s = "0" + s
	}
	return s
}

func xorKey(data []byte) []byte {
	out := make([]byte, len(data))
	for i := range data {
		out[i] = data[i] ^ secretKey[i%len(secretKey)]
	}
	return out
}

func keySum() int {
	sum := 0
	for i := 0; i < len(secretKey); i++ {
		sum += int(secretKey[i])
	}
	return sum
}

// shuffle applies a deterministic position-dependent permutation keyed by the
// secret. The swap target is a linear function of position folded by the key
// sum, walked high to low.
func shuffle(b []byte) {
	sum := keySum()
	for i := len(b) - 1; i > 0; i-- {
		j := (sum + i*7) % (i + 1)
		b[i], b[j] = b[j], b[i]
	}
}

// unshuffle inverts shuffle by recording the exact swap sequence and
// replaying it in reverse. Re-running the forward pass would not undo it.
func unshuffle(b []byte) {
	sum := keySum()
	type swap struct{ i, j int }
	swaps := make([]swap, 0, len(b))
	for i := len(b) - 1; i > 0; i-- {
		swaps = append(swaps, swap{i, (sum + i*7) % (i + 1)})
	}
	for k := len(swaps) - 1; k >= 0; k-- {
		s := swaps[k]
		b[s.i], b[s.j] = b[s.j], b[s.i]
	}
}

// Encode wraps plaintext into an opaque token stamped with the current time.
func Encode(plaintext string) string {
	return EncodeAt(plaintext, time.Now())
}

// EncodeAt is Encode with an explicit timestamp. The timestamp marks when the
// token was produced; it is evidence, not replay prevention.
func EncodeAt(plaintext string, at time.Time) string {
	ts := strconv.FormatInt(at.UnixMilli(), 36)
	data := ts + separator + plaintext
	payload := checksum([]byte(data)) + separator + data

	b := xorKey([]byte(payload))
	shuffle(b)
	return magicHeader + base64.StdEncoding.EncodeToString(b)
}

// Decode reverses Encode and verifies the embedded checksum. It returns the
// original plaintext with the timestamp and checksum framing stripped.
func Decode(token string) (string, error) {
	if !strings.HasPrefix(token, magicHeader) {
		return "", ErrFormat
	}
	b, err := base64.StdEncoding.DecodeString(token[len(magicHeader):])
	if err != nil {
		return "", ErrFormat
	}
	unshuffle(b)
	decoded := string(xorKey(b))

	first := strings.Index(decoded, separator)
	if first == -1 {
		return "", ErrFormat
	}
	stored, data := decoded[:first], decoded[first+1:]
	if checksum([]byte(data)) != stored {
		return "", ErrIntegrity
	}

	second := strings.Index(data, separator)
	if second == -1 {
		return "", ErrFormat
	}
	return data[second+1:], nil
}

// IsEncoded reports whether content looks like a token produced by this
// codec. Plain JSON activation files fail this check and are consumed as-is.
func IsEncoded(content string) bool {
	return strings.HasPrefix(strings.TrimSpace(content), magicHeader)
}

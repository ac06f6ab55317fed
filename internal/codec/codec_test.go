package codec

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		plaintext string
	}{
		{"settings json", `{"schoolName":"Test School","wilaya":"Algiers","commune":"Bab El Oued"}`},
		{"arabic content", `{"schoolName":"مدرسة الأمل","wilaya":"الجزائر","commune":"باب الوادي"}`},
		{"empty string", ""},
		{"contains separator", "left|right|again"},
		{"long payload", strings.Repeat(`{"k":"v"}`, 500)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := EncodeAt(tt.plaintext, time.UnixMilli(1735689600000))
			if !strings.HasPrefix(token, magicHeader) {
				t.Fatalf("token missing magic header: %q", token[:min(20, len(token))])
			}
			got, err := Decode(token)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got != tt.plaintext {
				t.Errorf("Decode() = %q, want %q", got, tt.plaintext)
			}
		})
	}
}

func TestEncodeDeterministic(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	a := EncodeAt("payload", at)
	b := EncodeAt("payload", at)
	if a != b {
		t.Errorf("EncodeAt not deterministic: %q vs %q", a, b)
	}
}

func TestDecodeFormatErrors(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"no magic header", `{"plain":"json"}`},
		{"empty", ""},
		{"magic only, bad base64", magicHeader + "!!!not-base64!!!"},
		{"magic with wrong body", magicHeader + base64.StdEncoding.EncodeToString([]byte("no separators here"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.token); !errors.Is(err, ErrFormat) {
				t.Errorf("Decode() error = %v, want ErrFormat", err)
			}
		})
	}
}

func TestDecodeIntegrityError(t *testing.T) {
	// Valid framing, deliberately wrong checksum.
	payload := "00000000" + separator + "ts" + separator + `{"a":1}`
	b := xorKey([]byte(payload))
	shuffle(b)
	token := magicHeader + base64.StdEncoding.EncodeToString(b)

	if _, err := Decode(token); !errors.Is(err, ErrIntegrity) {
		t.Errorf("Decode() error = %v, want ErrIntegrity", err)
	}
}

func TestTamperedTokenFails(t *testing.T) {
	token := EncodeAt(`{"schoolName":"Test","expiryDate":"2026-01-01"}`, time.UnixMilli(1735689600000))

	sawIntegrity := false
	// The final base64 quantum carries unused padding bits the default
	// decoder does not verify, so stop before it.
	for i := len(magicHeader); i < len(token)-4; i++ {
		flipped := 'A'
		if token[i] == 'A' {
			flipped = 'B'
		}
		tampered := token[:i] + string(flipped) + token[i+1:]
		if tampered == token {
			continue
		}
		got, err := Decode(tampered)
		if err == nil {
			t.Fatalf("Decode() accepted token tampered at %d: %q", i, got)
		}
		if errors.Is(err, ErrIntegrity) {
			sawIntegrity = true
		}
	}
	if !sawIntegrity {
		t.Error("no tampered position produced ErrIntegrity")
	}
}

func TestUnshuffleInvertsShuffle(t *testing.T) {
	orig := []byte("the quick brown fox jumps over the lazy dog 0123456789")
	b := append([]byte(nil), orig...)
	shuffle(b)
	if string(b) == string(orig) {
		t.Fatal("shuffle is a no-op")
	}
	unshuffle(b)
	if string(b) != string(orig) {
		t.Errorf("unshuffle(shuffle(x)) = %q, want %q", b, orig)
	}
}

func TestChecksum(t *testing.T) {
	if got := checksum([]byte("hello")); len(got) != 8 {
		t.Errorf("checksum length = %d, want 8", len(got))
	}
	if checksum([]byte("a")) == checksum([]byte("b")) {
		t.Error("distinct inputs collided")
	}
	if checksum([]byte("same")) != checksum([]byte("same")) {
		t.Error("checksum not deterministic")
	}
}

func TestIsEncoded(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"encoded token", Encode(`{}`), true},
		{"leading whitespace", "  \n" + Encode(`{}`), true},
		{"plain json", `{"schoolName":"x"}`, false},
		{"empty", "", false},
		{"header substring not at start", "x" + magicHeader, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEncoded(tt.content); got != tt.want {
				t.Errorf("IsEncoded() = %v, want %v", got, tt.want)
			}
		})
	}
}

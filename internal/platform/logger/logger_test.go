package logger

import (
	"strings"
	"testing"
)

func TestSanitizeValue_RedactsSecrets(t *testing.T) {
	if got := sanitizeValue("password", "hunter2"); got != "[REDACTED]" {
		t.Fatalf("password: want=[REDACTED] got=%v", got)
	}
	if got := sanitizeValue("db_secret", "x"); got != "[REDACTED]" {
		t.Fatalf("db_secret: want=[REDACTED] got=%v", got)
	}
}

func TestSanitizeValue_SummarizesSignatures(t *testing.T) {
	sig := "data:image/png;base64," + strings.Repeat("A", 100)
	got := sanitizeValue("operator_signature", sig)
	if got != "[signature 122 bytes]" {
		t.Fatalf("signature key: want=[signature 122 bytes] got=%v", got)
	}
	got = sanitizeValue("payload", sig)
	if got != "[signature 122 bytes]" {
		t.Fatalf("image value: want=[signature 122 bytes] got=%v", got)
	}
}

func TestSanitizeValue_HashesPeople(t *testing.T) {
	got, ok := sanitizeValue("person", "ravi").(string)
	if !ok || !strings.HasPrefix(got, "hash:") || len(got) != len("hash:")+12 {
		t.Fatalf("person: want hash:<12 hex> got=%v", got)
	}
	if again := sanitizeValue("person", "ravi"); again != got {
		t.Fatalf("hash not stable: %v vs %v", got, again)
	}
}

func TestSanitizeKVs_KeepsOddTrailingKey(t *testing.T) {
	out := sanitizeKVs([]interface{}{"form", "dmm-settings", "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("odd kv: got=%v", out)
	}
}

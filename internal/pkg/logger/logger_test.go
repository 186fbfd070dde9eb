package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVs(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"password", "hunter2",
		"client_id", "6f1c1d8e-0000-4000-8000-000000000001",
		"order_id", "keep-me",
		"dangling",
	})
	if len(out) != 7 {
		t.Fatalf("len: want=7 got=%d", len(out))
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("password: want=[REDACTED] got=%v", out[1])
	}
	if s, _ := out[3].(string); !strings.HasPrefix(s, "hash:") || len(s) != len("hash:")+12 {
		t.Fatalf("client_id: want hash:<12 hex> got=%v", out[3])
	}
	if out[5] != "keep-me" {
		t.Fatalf("order_id: want=keep-me got=%v", out[5])
	}
	if out[6] != "dangling" {
		t.Fatalf("dangling key: want=dangling got=%v", out[6])
	}
}

func TestHashValueIsStable(t *testing.T) {
	if hashValue("abc") != hashValue("abc") {
		t.Fatalf("hash must be deterministic")
	}
	if hashValue("") != "" {
		t.Fatalf("empty value should hash to empty")
	}
}

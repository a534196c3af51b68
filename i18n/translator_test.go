package i18n

import (
	"strings"
	"testing"
)

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T("unknown_type", map[string]string{"id": "com.acme.Order"}); msg != "unknown type com.acme.Order" {
		t.Fatalf("unexpected english message %q", msg)
	}

	SetLanguage("ja")
	if msg := T("unknown_type", map[string]string{"id": "com.acme.Order"}); !strings.Contains(msg, "com.acme.Order") || strings.HasPrefix(msg, "unknown type") {
		t.Fatalf("expected japanese message, got %q", msg)
	}

	// reset to en
	SetLanguage("en")
}

func TestTranslator_UnknownCodeEchoes(t *testing.T) {
	if msg := T("no_such_code", nil); msg != "no_such_code" {
		t.Fatalf("expected code echo, got %q", msg)
	}
}

type upper struct{}

func (upper) Message(code string, _ map[string]string) string { return strings.ToUpper(code) }

func TestSetTranslator(t *testing.T) {
	SetTranslator(upper{})
	defer SetTranslator(nil)
	if msg := T("name_collision", nil); msg != "NAME_COLLISION" {
		t.Fatalf("custom translator not used: %q", msg)
	}
}

package uild

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateValidates(t *testing.T) {
	for _, kind := range []Kind{KindTenant, KindUser, KindSession, KindAction, KindPage, KindComponent} {
		id, err := Generate(kind, nil)
		if err != nil {
			t.Fatalf("generate %s: %v", kind, err)
		}
		if !Validate(string(id)) {
			t.Errorf("Validate(%q) = false, want true", id)
		}
		got, ok := KindOf(string(id))
		if !ok || got != kind {
			t.Errorf("KindOf(%q) = %q, %v; want %q", id, got, ok, kind)
		}
	}
}

func TestGenerateUnknownKind(t *testing.T) {
	if _, err := Generate(Kind("bogus"), nil); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestGenerateWithMetadata(t *testing.T) {
	// Metadata never leaks into the identifier: the text alone must validate.
	for _, meta := range []map[string]string{
		nil,
		{},
		{"type": "page_view"},
		{"tenant": "tn-1-aaaaaa-0000", "type": "page_view", "session": "ss-2-bbbbbb-0000"},
	} {
		id, err := Generate(KindAction, meta)
		if err != nil {
			t.Fatalf("generate with metadata %v: %v", meta, err)
		}
		if !Validate(string(id)) {
			t.Errorf("Validate(%q) = false, want true (minted with metadata %v)", id, meta)
		}
		if kind, ok := KindOf(string(id)); !ok || kind != KindAction {
			t.Errorf("KindOf(%q) = %q, %v; want action", id, kind, ok)
		}
	}
}

func TestValidateRejectsMalformed(t *testing.T) {
	id := MustGenerate(KindTenant)

	cases := []string{
		"",
		"tn",
		"tn-123",
		"tn-123-abcdef",                   // checksum missing
		"xx-1649836800000-abcdef-0000",    // unknown prefix
		"tn--1-abcdef-0000",               // negative timestamp splits wrong
		"tn-notanumber-abcdef-0000",       // non-numeric timestamp
		"tn-1649836800000-ABCDEF-0000",    // uppercase entropy
		"tn-1649836800000-abcde-0000",     // short entropy
		"tn-1649836800000-abcdef-00",      // short checksum
		"tn_1649836800000_abcdef",         // legacy underscore form
		string(id) + "-extra",             // trailing part
		"us" + strings.TrimPrefix(string(id), "tn"), // prefix swap breaks checksum
	}
	for _, c := range cases {
		if Validate(c) {
			t.Errorf("Validate(%q) = true, want false", c)
		}
	}
}

func TestValidateCatchesSingleCharCorruption(t *testing.T) {
	id := string(MustGenerate(KindUser))

	// Flip every character to a different alphanumeric; the checksum (or the
	// structural check) must reject each mutation.
	for i := 0; i < len(id); i++ {
		if id[i] == '-' {
			continue
		}
		repl := byte('0')
		if id[i] == '0' {
			repl = '1'
		}
		mutated := id[:i] + string(repl) + id[i+1:]
		if mutated == id {
			continue
		}
		if Validate(mutated) {
			t.Errorf("mutation at %d accepted: %q", i, mutated)
		}
	}
}

func TestTimestampOfCloseToNow(t *testing.T) {
	before := time.Now().UnixMilli()
	id := MustGenerate(KindSession)
	after := time.Now().UnixMilli()

	ts, ok := TimestampOf(string(id))
	if !ok {
		t.Fatalf("TimestampOf(%q) invalid", id)
	}
	if ts < before || ts > after {
		t.Errorf("timestamp %d outside [%d, %d]", ts, before, after)
	}
}

func TestDecompositionOnInvalidInput(t *testing.T) {
	if _, ok := KindOf("garbage"); ok {
		t.Error("KindOf accepted garbage")
	}
	if _, ok := TimestampOf("garbage"); ok {
		t.Error("TimestampOf accepted garbage")
	}
}

func TestCompare(t *testing.T) {
	older := "tn-1000-aaaaaa-" + checksum("tn-1000-aaaaaa")
	newer := "us-2000-bbbbbb-" + checksum("us-2000-bbbbbb")

	if c, err := Compare(older, newer); err != nil || c != -1 {
		t.Errorf("Compare(older, newer) = %d, %v; want -1, nil", c, err)
	}
	if c, err := Compare(newer, older); err != nil || c != 1 {
		t.Errorf("Compare(newer, older) = %d, %v; want 1, nil", c, err)
	}
	if c, err := Compare(older, older); err != nil || c != 0 {
		t.Errorf("Compare(older, older) = %d, %v; want 0, nil", c, err)
	}
}

func TestCompareInvalidInput(t *testing.T) {
	id := string(MustGenerate(KindTenant))
	if _, err := Compare("garbage", id); err == nil {
		t.Error("expected error for invalid first argument")
	}
	if _, err := Compare(id, "garbage"); err == nil {
		t.Error("expected error for invalid second argument")
	}
}

func TestIsKind(t *testing.T) {
	id := string(MustGenerate(KindTenant))
	if !IsKind(id, KindTenant) {
		t.Errorf("IsKind(%q, tenant) = false", id)
	}
	if IsKind(id, KindUser) {
		t.Errorf("IsKind(%q, user) = true", id)
	}
	if IsKind("garbage", KindTenant) {
		t.Error("IsKind accepted garbage")
	}
}

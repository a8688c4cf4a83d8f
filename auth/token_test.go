package auth

import "testing"

func TestExtractToken_HeaderWins(t *testing.T) {
	tok, ok := ExtractToken("Bearer abc.def.ghi", "query-token")
	if !ok || tok != "abc.def.ghi" {
		t.Fatalf("expected header token, got %q ok=%v", tok, ok)
	}
}

func TestExtractToken_PrefixIsCaseSensitive(t *testing.T) {
	tok, ok := ExtractToken("bearer abc.def.ghi", "")
	if ok {
		t.Fatalf("lowercase bearer prefix must not match, got %q", tok)
	}
}

func TestExtractToken_TrimsWhitespace(t *testing.T) {
	tok, ok := ExtractToken("Bearer   abc.def.ghi  ", "")
	if !ok || tok != "abc.def.ghi" {
		t.Fatalf("expected trimmed token, got %q ok=%v", tok, ok)
	}
}

func TestExtractToken_QueryFallback(t *testing.T) {
	tok, ok := ExtractToken("", "abc.def.ghi")
	if !ok || tok != "abc.def.ghi" {
		t.Fatalf("expected query token, got %q ok=%v", tok, ok)
	}

	tok, ok = ExtractToken("Basic dXNlcjpwYXNz", "abc.def.ghi")
	if !ok || tok != "abc.def.ghi" {
		t.Fatalf("non-bearer header should fall back to query, got %q ok=%v", tok, ok)
	}
}

func TestExtractToken_Absent(t *testing.T) {
	if _, ok := ExtractToken("", ""); ok {
		t.Fatal("expected absent token")
	}
	if _, ok := ExtractToken("Bearer ", ""); ok {
		t.Fatal("empty bearer value should be absent")
	}
	if _, ok := ExtractToken("Bearer", ""); ok {
		t.Fatal("prefix without space should be absent")
	}
}

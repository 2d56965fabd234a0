package entity

import "testing"

func TestQuery_AddSymbol(t *testing.T) {
	q := Query{Content: "compare NVDA and AMD"}

	q.AddSymbol("NVDA")
	q.AddSymbol("AMD")
	q.AddSymbol("NVDA") // duplicate

	if len(q.Symbols) != 2 {
		t.Errorf("expected 2 symbols, got %d", len(q.Symbols))
	}
	if !q.IsMultiSymbol() {
		t.Error("expected multi-symbol query")
	}
}

func TestQueryResult_AddSource(t *testing.T) {
	r := QueryResult{Success: true}

	r.AddSource("stock-data")
	r.AddSource("web-search")
	r.AddSource("stock-data") // duplicate

	if len(r.Sources) != 2 {
		t.Errorf("expected 2 sources, got %d", len(r.Sources))
	}
}

func TestQueryResult_MarkFailed(t *testing.T) {
	r := QueryResult{Success: true}

	r.MarkFailed("upstream unavailable")

	if r.Success {
		t.Error("expected Success=false after MarkFailed")
	}
	if r.ErrorMessage != "upstream unavailable" {
		t.Errorf("unexpected error message: %q", r.ErrorMessage)
	}
}

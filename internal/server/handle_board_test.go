package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/hucube/timesboard/internal/board"
)

func boardPath(suffix string) string {
	return "/api/competitions/" + testCompetitionID + suffix
}

func TestBoardAnonymousReadOnly(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, boardPath("/board"), nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp BoardResponse
	json.NewDecoder(w.Body).Decode(&resp)

	if resp.CanEdit {
		t.Error("anonymous viewer should not be able to edit")
	}
	if resp.TimeLimit != 60000 {
		t.Errorf("expected time limit 60000, got %d", resp.TimeLimit)
	}
	if len(resp.Competitors) != 2 {
		t.Fatalf("expected 2 competitors, got %d", len(resp.Competitors))
	}

	for _, card := range resp.Competitors {
		for _, cat := range card.Categories {
			for i, cell := range cat.Cells {
				if cell.Editable {
					t.Errorf("cell %s[%d] editable for anonymous viewer", cat.EventID, i)
				}
			}
		}
	}
}

func TestBoardNameFilter(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, boardPath("/board?q=anna"), nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp BoardResponse
	json.NewDecoder(w.Body).Decode(&resp)

	if len(resp.Competitors) != 1 {
		t.Fatalf("expected 1 competitor, got %d", len(resp.Competitors))
	}
	if resp.Competitors[0].Name != "Anna Kovacs" {
		t.Errorf("expected Anna Kovacs, got %q", resp.Competitors[0].Name)
	}
}

func TestBoardStaleFallback(t *testing.T) {
	env := newTestEnv(t)

	// Prime the registry with a good read.
	w := env.do(t, http.MethodGet, boardPath("/board"), nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("priming read: expected 200, got %d", w.Code)
	}

	env.upstream.set(func(f *fakeUpstream) { f.down = true })

	w = env.do(t, http.MethodGet, boardPath("/board"), nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from stale fallback, got %d: %s", w.Code, w.Body.String())
	}

	var resp BoardResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if !resp.Stale {
		t.Error("expected stale flag when upstream is down")
	}
	if len(resp.Competitors) != 2 {
		t.Errorf("expected 2 competitors from fallback, got %d", len(resp.Competitors))
	}
}

func TestBoardNoRecordAnywhere(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.set(func(f *fakeUpstream) { f.down = true })

	w := env.do(t, http.MethodGet, boardPath("/board"), nil, nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 with no record anywhere, got %d", w.Code)
	}
}

func TestCardNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, boardPath("/persons/9999"), nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCardEditableCellsForDelegate(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t, "")

	w := env.do(t, http.MethodGet, boardPath("/persons/1"), nil, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp CardResponse
	json.NewDecoder(w.Body).Decode(&resp)

	if resp.Card.FirstEditable != "evt-333-att-1" {
		t.Errorf("expected first editable evt-333-att-1, got %q", resp.Card.FirstEditable)
	}

	cells := resp.Card.Categories[0].Cells
	wantEditable := []bool{false, true, false, true, false}
	for i, want := range wantEditable {
		if cells[i].Editable != want {
			t.Errorf("cell %d editable = %v, want %v", i, cells[i].Editable, want)
		}
	}
	if cells[1].Display != "DNF" || cells[1].Source != board.SourceOriginal {
		t.Errorf("cell 1 = %+v, want original DNF", cells[1])
	}
}

func TestCardTimeBudget(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, boardPath("/persons/1"), nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp CardResponse
	json.NewDecoder(w.Body).Decode(&resp)

	// 12.34 + 20.00 + 15.00 against a 10 minute limit.
	if resp.Card.UsedTime != 4734 {
		t.Errorf("used time = %d, want 4734", resp.Card.UsedTime)
	}
	if resp.Card.RemainingTime != 55266 {
		t.Errorf("remaining time = %d, want 55266", resp.Card.RemainingTime)
	}
}

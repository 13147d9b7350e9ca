package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newContext(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestFromContext_Defaults(t *testing.T) {
	p := FromContext(newContext("/"))

	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected default offset 0, got %d", p.Offset)
	}
}

func TestFromContext_CustomValues(t *testing.T) {
	p := FromContext(newContext("/?limit=50&offset=10"))

	if p.Limit != 50 {
		t.Errorf("expected limit 50, got %d", p.Limit)
	}
	if p.Offset != 10 {
		t.Errorf("expected offset 10, got %d", p.Offset)
	}
}

func TestFromContext_Page(t *testing.T) {
	p := FromContext(newContext("/?limit=10&page=3"))

	if p.Offset != 20 {
		t.Errorf("expected offset 20, got %d", p.Offset)
	}
	if p.Page() != 3 {
		t.Errorf("expected page 3, got %d", p.Page())
	}
}

func TestFromContext_OffsetWinsOverPage(t *testing.T) {
	p := FromContext(newContext("/?limit=10&page=3&offset=5"))

	if p.Offset != 5 {
		t.Errorf("expected offset 5, got %d", p.Offset)
	}
}

func TestFromContext_MaxLimit(t *testing.T) {
	p := FromContext(newContext("/?limit=500"))

	if p.Limit != MaxLimit {
		t.Errorf("expected limit clamped to %d, got %d", MaxLimit, p.Limit)
	}
}

func TestFromContext_NegativeOffset(t *testing.T) {
	p := FromContext(newContext("/?offset=-5"))

	if p.Offset != 0 {
		t.Errorf("expected offset 0, got %d", p.Offset)
	}
}

func TestNewResponse(t *testing.T) {
	data := []string{"a", "b"}
	resp := NewResponse(data, 50, 20, 0)

	if resp.Total != 50 {
		t.Errorf("expected total 50, got %d", resp.Total)
	}
	if !resp.HasMore {
		t.Error("expected has_more to be true")
	}
	if resp.Page != 1 {
		t.Errorf("expected page 1, got %d", resp.Page)
	}

	resp = NewResponse(data, 2, 20, 0)
	if resp.HasMore {
		t.Error("expected has_more to be false")
	}
}

func TestParams_PreviousOffset(t *testing.T) {
	tests := []struct {
		offset, limit, want int
	}{
		{40, 20, 20},
		{10, 20, 0},
		{0, 20, 0},
	}
	for _, tt := range tests {
		p := Params{Limit: tt.limit, Offset: tt.offset}
		if got := p.PreviousOffset(); got != tt.want {
			t.Errorf("PreviousOffset(%d,%d) = %d, want %d", tt.offset, tt.limit, got, tt.want)
		}
	}
}

func TestParams_Links(t *testing.T) {
	p := Params{Limit: 10, Offset: 10}
	links := p.Links("/api/v1/admin/users", 25)

	if len(links) != 3 {
		t.Fatalf("expected 3 links, got %d", len(links))
	}
	if links[0].Rel != "self" || links[0].Href != "/api/v1/admin/users?limit=10&offset=10" {
		t.Errorf("unexpected self link %+v", links[0])
	}
	if links[1].Rel != "next" || links[1].Href != "/api/v1/admin/users?limit=10&offset=20" {
		t.Errorf("unexpected next link %+v", links[1])
	}
	if links[2].Rel != "previous" || links[2].Href != "/api/v1/admin/users?limit=10&offset=0" {
		t.Errorf("unexpected previous link %+v", links[2])
	}
}

func TestParams_Links_SinglePage(t *testing.T) {
	links := Params{Limit: 20}.Links("/x", 3)
	if len(links) != 1 {
		t.Errorf("expected only self link, got %d", len(links))
	}
}

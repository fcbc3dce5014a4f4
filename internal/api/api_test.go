package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"launchpad/internal/store"
	"launchpad/internal/types"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cache := store.NewSaleCache(store.NewDemoFetcher(time.Unix(1_700_000_000, 0)), nil, time.Minute, nil)
	profiles := store.NewFileProfileStore(filepath.Join(t.TempDir(), "profiles.json"))
	return New(cache, nil, nil, nil, profiles, nil)
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := doRequest(t, newTestServer(t), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestListSales(t *testing.T) {
	rec := doRequest(t, newTestServer(t), http.MethodGet, "/api/sales", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var body struct {
		Sales []types.SaleRecord `json:"sales"`
		Stale bool               `json:"stale"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Sales) != 6 || body.Stale {
		t.Fatalf("sales = %d, stale = %v", len(body.Sales), body.Stale)
	}
}

func TestGetSaleByID(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/sales/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var record types.SaleRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &record); err != nil {
		t.Fatal(err)
	}
	if record.TokenSymbol != "QFI" {
		t.Fatalf("record = %+v", record)
	}

	if rec := doRequest(t, srv, http.MethodGet, "/api/sales/99", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d for unknown sale", rec.Code)
	}
}

func TestUnavailableCapability(t *testing.T) {
	rec := doRequest(t, newTestServer(t), http.MethodGet, "/api/staking/0x00000000000000000000000000000000000000ee", "")
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want 501 for unwired staking", rec.Code)
	}
}

func TestInvalidAddress(t *testing.T) {
	rec := doRequest(t, newTestServer(t), http.MethodGet, "/api/tier/not-an-address", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	addr := "0x00000000000000000000000000000000000000ee"

	if rec := doRequest(t, srv, http.MethodGet, "/api/profile/"+addr, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d before creation", rec.Code)
	}

	rec := doRequest(t, srv, http.MethodPut, "/api/profile/"+addr, `{"display_name":"alice"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/profile/"+addr, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var profile types.Profile
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatal(err)
	}
	if profile.DisplayName != "alice" {
		t.Fatalf("profile = %+v", profile)
	}
}

//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestLogin_WrongPassword(t *testing.T) {
	resp := doPost(t, "/api/users/login", map[string]string{
		"email":    adminEmail,
		"password": "definitely-wrong",
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestProducts_RequireAuth(t *testing.T) {
	resp := doGet(t, "/api/products", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestProducts_CashierCannotCreate(t *testing.T) {
	cashierToken, err := login("cashier@dukapos.local", adminPassword)
	if err != nil {
		t.Fatalf("cashier login: %v", err)
	}

	resp := doPost(t, "/api/products", map[string]any{
		"name":        "Contraband",
		"price":       "1",
		"stock":       1,
		"category_id": 1,
	}, cashierToken)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestProducts_List(t *testing.T) {
	resp := doGet(t, "/api/products", adminToken)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeBody[[]productResponse](t, resp)
	if len(products) < 7 {
		t.Errorf("got %d products, want at least the 7 seeded", len(products))
	}
}

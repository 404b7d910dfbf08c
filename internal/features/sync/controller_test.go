package sync

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestSyncRoutes(t *testing.T) {
	s, _, _, _ := newTestSyncService(t)
	app := fiber.New()
	NewSyncApi(NewSyncController(s)).Setup(app)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"status before sync", "GET", "/api/crm/accounts/acc-1/sync/status", fiber.StatusNotFound},
		{"sync unknown account", "POST", "/api/crm/accounts/missing/sync", fiber.StatusNotFound},
		{"sync account", "POST", "/api/crm/accounts/acc-1/sync", fiber.StatusOK},
		{"status after sync", "GET", "/api/crm/accounts/acc-1/sync/status", fiber.StatusOK},
		{"sync lead", "POST", "/api/crm/accounts/acc-1/leads/pipedrive_1/sync", fiber.StatusOK},
		{"sync missing lead", "POST", "/api/crm/accounts/acc-1/leads/pipedrive_9/sync", fiber.StatusNotFound},
		{"clear status", "DELETE", "/api/crm/accounts/acc-1/sync/status", fiber.StatusOK},
		{"status after clear", "GET", "/api/crm/accounts/acc-1/sync/status", fiber.StatusNotFound},
	}

	// steps depend on each other, so they run in order
	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest(tt.method, tt.path, nil))
		if err != nil {
			t.Fatalf("%s: request failed: %v", tt.name, err)
		}
		if resp.StatusCode != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.want, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestSyncRouteBody(t *testing.T) {
	s, _, _, _ := newTestSyncService(t)
	app := fiber.New()
	NewSyncApi(NewSyncController(s)).Setup(app)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/crm/accounts/acc-1/sync", nil))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body struct {
		Data SyncStatus `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Data.CrmAccountID != "acc-1" || body.Data.LeadsCount != 2 || body.Data.Status != StatusIdle {
		t.Errorf("unexpected status body: %+v", body.Data)
	}
}

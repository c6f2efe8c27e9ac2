package handler

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestMigrateStatusRequiresLogin(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	w, c := getRequest(t, "/api/migrate", "")
	api.MigrateStatus(c)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}

func TestMigrateStatusMigrated(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	_, cookie := seedUser(t, "alice", false)

	// AutoMigrate 建出的新表自带 user_id 列
	w, c := getRequest(t, "/api/migrate", cookie)
	api.MigrateStatus(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var resp struct {
		IsMigrated bool `json:"isMigrated"`
		HasBackup  bool `json:"hasBackup"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.IsMigrated || resp.HasBackup {
		t.Fatalf("unexpected status: %+v", resp)
	}
}

func TestRunMigrationRequiresAdmin(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	_, cookie := seedUser(t, "plain", false)

	w, c := postJSON(t, "/api/migrate", nil, cookie)
	api.RunMigration(c)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", w.Code)
	}
}

func TestRunMigrationAlreadyMigrated(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	_, cookie := seedUser(t, "boss", true)

	w, c := postJSON(t, "/api/migrate", nil, cookie)
	api.RunMigration(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Success {
		t.Fatal("expected success=false when already migrated")
	}
}

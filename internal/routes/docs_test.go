package routes

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestRegisterDocsServesCatalog(t *testing.T) {
	app := fiber.New()
	RegisterDocs(app)

	req := httptest.NewRequest("GET", "/docs", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	var payload struct {
		Name     string       `json:"name"`
		Sections []docSection `json:"sections"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Name == "" {
		t.Error("expected a non-empty API name")
	}
	if len(payload.Sections) == 0 {
		t.Fatal("expected at least one section")
	}

	seen := make(map[string]bool)
	for _, section := range payload.Sections {
		seen[section.Name] = true
		if len(section.Endpoints) == 0 {
			t.Errorf("section %q has no endpoints", section.Name)
		}
	}
	for _, want := range []string{"Auth", "Sessions", "Practitioners"} {
		if !seen[want] {
			t.Errorf("missing section %q", want)
		}
	}
}

package refdata

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestMemoryRepositorySeeded(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	genders, err := repo.List(ctx, Genders)
	if err != nil {
		t.Fatalf("list genders: %v", err)
	}
	if len(genders) != 3 {
		t.Fatalf("expected 3 seeded genders, got %d", len(genders))
	}
	goals, err := repo.List(ctx, Goals)
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	if len(goals) != 6 {
		t.Fatalf("expected 6 seeded goals, got %d", len(goals))
	}
	roles, err := repo.List(ctx, Roles)
	if err != nil {
		t.Fatalf("list roles: %v", err)
	}
	if len(roles) != 0 {
		t.Fatalf("expected empty roles, got %d", len(roles))
	}
}

func TestMemoryRepositoryCRUD(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	item, err := repo.Create(ctx, Roles, "admin")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(ctx, Roles, "admin"); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}

	renamed, err := repo.Update(ctx, Roles, item.ID, "superadmin")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if renamed.Name != "superadmin" {
		t.Fatalf("expected rename, got %q", renamed.Name)
	}

	if err := repo.Delete(ctx, Roles, item.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, Roles, item.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := repo.Update(ctx, Roles, 9999, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing id, got %v", err)
	}
}

func TestKindTableWhitelist(t *testing.T) {
	for _, kind := range Kinds() {
		if _, err := kind.Table(); err != nil {
			t.Fatalf("kind %q rejected: %v", kind, err)
		}
	}
	if _, err := Kind("users; DROP TABLE users").Table(); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func setupHandlerApp(t *testing.T) *fiber.App {
	t.Helper()
	repo := NewMemoryRepository()
	app := fiber.New()
	h := NewHandler(repo, Genders)
	app.Get("/genders", h.Index)
	app.Get("/genders/:id", h.Show)
	app.Post("/genders", h.Store)
	app.Put("/genders/:id", h.Update)
	app.Delete("/genders/:id", h.Destroy)
	return app
}

func TestHandlerIndexKeyedByKind(t *testing.T) {
	app := setupHandlerApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/genders", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	var decoded map[string][]Item
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded["genders"]) != 3 {
		t.Fatalf("expected 3 genders under the kind key, got %v", decoded)
	}
}

func TestHandlerStoreAndDuplicate(t *testing.T) {
	app := setupHandlerApp(t)

	post := func(body string) int {
		req := httptest.NewRequest(fiber.MethodPost, "/genders", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if status := post(`{"name":"Nonbinary"}`); status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if status := post(`{"name":"Nonbinary"}`); status != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for duplicate, got %d", status)
	}
	if status := post(`{"name":""}`); status != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty name, got %d", status)
	}
}

func TestHandlerShowMissing(t *testing.T) {
	app := setupHandlerApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/genders/9999", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/genders/not-a-number", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 for bad id, got %d", resp.StatusCode)
	}
}

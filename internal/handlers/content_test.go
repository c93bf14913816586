package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/trinslooks/studio-api/internal/booking"
	"github.com/trinslooks/studio-api/internal/model"
)

type fakeContent struct {
	entries    map[string]model.ContentEntry
	categories map[string]model.PortfolioCategory
	images     map[string]model.PortfolioImage
}

func newFakeContent() *fakeContent {
	return &fakeContent{
		entries:    map[string]model.ContentEntry{},
		categories: map[string]model.PortfolioCategory{},
		images:     map[string]model.PortfolioImage{},
	}
}

func (f *fakeContent) GetContent(_ context.Context, key string) (model.ContentEntry, error) {
	e, ok := f.entries[key]
	if !ok {
		return model.ContentEntry{}, booking.ErrNotFound
	}
	return e, nil
}

func (f *fakeContent) ListContent(_ context.Context) ([]model.ContentEntry, error) {
	var out []model.ContentEntry
	for _, e := range f.entries {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeContent) SetContent(_ context.Context, e model.ContentEntry) error {
	f.entries[e.Key] = e
	return nil
}

func (f *fakeContent) ListCategories(_ context.Context) ([]model.PortfolioCategory, error) {
	var out []model.PortfolioCategory
	for _, c := range f.categories {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeContent) UpsertCategory(_ context.Context, c model.PortfolioCategory) error {
	f.categories[c.ID] = c
	return nil
}

func (f *fakeContent) DeleteCategory(_ context.Context, id string) error {
	if _, ok := f.categories[id]; !ok {
		return booking.ErrNotFound
	}
	delete(f.categories, id)
	for imgID, img := range f.images {
		if img.CategoryID == id {
			delete(f.images, imgID)
		}
	}
	return nil
}

func (f *fakeContent) ListImages(_ context.Context, categoryID string) ([]model.PortfolioImage, error) {
	var out []model.PortfolioImage
	for _, img := range f.images {
		if categoryID == "" || img.CategoryID == categoryID {
			out = append(out, img)
		}
	}
	return out, nil
}

func (f *fakeContent) UpsertImage(_ context.Context, img model.PortfolioImage) error {
	f.images[img.ID] = img
	return nil
}

func (f *fakeContent) DeleteImage(_ context.Context, id string) error {
	if _, ok := f.images[id]; !ok {
		return booking.ErrNotFound
	}
	delete(f.images, id)
	return nil
}

func newContentFixture() (*fakeContent, *ContentHandler) {
	content := newFakeContent()
	catalog := &fakeHandlerCatalog{services: map[string]model.Service{
		"svc-1": {ID: "svc-1", Name: "Glam Session", Duration: "2 Hours", Price: "$150"},
	}}
	return content, NewContentHandler(content, catalog, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestServicesList(t *testing.T) {
	_, h := newContentFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/services", nil)
	rec := httptest.NewRecorder()
	h.Services(rec, req)

	var items []serviceItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Glam Session" {
		t.Fatalf("items %+v", items)
	}
}

func TestAdminServiceUpsertAssignsID(t *testing.T) {
	_, h := newContentFixture()

	body := `{"name":"Bridal Trial","duration":"90 min","price":"$80"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/services", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.AdminServices(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp serviceItem
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID == "" {
		t.Fatal("expected generated id")
	}
}

func TestAdminServiceDeleteNotFound(t *testing.T) {
	_, h := newContentFixture()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/services?id=missing", nil)
	rec := httptest.NewRecorder()
	h.AdminServices(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}

func TestContentRoundTrip(t *testing.T) {
	content, h := newContentFixture()

	body := `{"key":"hero","value":{"title":"Makeup by Dana","tagline":"Look your best"}}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/content", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.AdminContent(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("set status %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := content.entries["hero"]; !ok {
		t.Fatal("entry not stored")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/public/content?key=hero", nil)
	rec = httptest.NewRecorder()
	h.Content(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status %d", rec.Code)
	}
	var got contentItem
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Key != "hero" || !strings.Contains(string(got.Value), "Makeup by Dana") {
		t.Fatalf("unexpected entry: %+v", got)
	}
}

func TestAdminContentRejectsInvalidJSONValue(t *testing.T) {
	_, h := newContentFixture()

	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/content",
		strings.NewReader(`{"key":"hero"}`))
	rec := httptest.NewRecorder()
	h.AdminContent(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestContentKeyNotFound(t *testing.T) {
	_, h := newContentFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/content?key=missing", nil)
	rec := httptest.NewRecorder()
	h.Content(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}

func TestDeleteCategoryRemovesImages(t *testing.T) {
	content, h := newContentFixture()
	content.categories["cat-1"] = model.PortfolioCategory{ID: "cat-1", Name: "Bridal"}
	content.images["img-1"] = model.PortfolioImage{ID: "img-1", CategoryID: "cat-1", ImageURL: "https://cdn/img-1.jpg"}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/portfolio/categories?id=cat-1", nil)
	rec := httptest.NewRecorder()
	h.AdminCategories(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status %d", rec.Code)
	}
	if len(content.images) != 0 {
		t.Fatal("category images must be removed with the category")
	}
}

func TestImagesFilterByCategory(t *testing.T) {
	content, h := newContentFixture()
	content.images["img-1"] = model.PortfolioImage{ID: "img-1", CategoryID: "cat-1", ImageURL: "u1"}
	content.images["img-2"] = model.PortfolioImage{ID: "img-2", CategoryID: "cat-2", ImageURL: "u2"}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/portfolio/images?category_id=cat-2", nil)
	rec := httptest.NewRecorder()
	h.Images(rec, req)

	var items []imageItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].ID != "img-2" {
		t.Fatalf("items %+v", items)
	}
}

type fakeContactSender struct {
	calls int
	err   error
	last  [3]string
}

func (f *fakeContactSender) SendContactEmail(_ context.Context, name, email, message string) error {
	f.calls++
	f.last = [3]string{name, email, message}
	return f.err
}

func TestContactSubmit(t *testing.T) {
	sender := &fakeContactSender{}
	h := NewContactHandler(sender, slog.New(slog.NewTextHandler(io.Discard, nil)))

	body := `{"name":"Dana","email":"d@example.com","message":"Do you travel for weddings?"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/contact", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if sender.calls != 1 || sender.last[0] != "Dana" {
		t.Fatalf("sender calls %d, last %v", sender.calls, sender.last)
	}
}

func TestContactMissingFields(t *testing.T) {
	sender := &fakeContactSender{}
	h := NewContactHandler(sender, slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/contact",
		strings.NewReader(`{"name":"Dana"}`))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	if sender.calls != 0 {
		t.Fatal("no send on invalid input")
	}
}

func TestContactDeliveryFailureIsNot5xx(t *testing.T) {
	sender := &fakeContactSender{err: errors.New("smtp down")}
	h := NewContactHandler(sender, slog.New(slog.NewTextHandler(io.Discard, nil)))

	body := `{"name":"Dana","email":"d@example.com","message":"hi"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/contact", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200 with failed status", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"failed"`) {
		t.Fatalf("body %s, want failed status", rec.Body.String())
	}
}

func TestContactIncludesServiceInterest(t *testing.T) {
	sender := &fakeContactSender{}
	h := NewContactHandler(sender, slog.New(slog.NewTextHandler(io.Discard, nil)))

	body := `{"name":"Dana","email":"d@example.com","service":"Bridal Trial","message":"hi"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/contact", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(sender.last[2], "Bridal Trial") {
		t.Fatalf("message %q, want service included", sender.last[2])
	}
}

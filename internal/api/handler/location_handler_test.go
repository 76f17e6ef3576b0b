package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/explorer-world/explorer-api/internal/api/middleware"
	"github.com/explorer-world/explorer-api/internal/core/domain"
	"github.com/explorer-world/explorer-api/internal/core/ports"
)

// stubLocationService records the last call of each write operation.
type stubLocationService struct {
	ports.LocationService

	createIn   ports.CreateLocationInput
	replayed   bool
	patch      ports.LocationPatch
	upload     *ports.GalleryUpload
	uploadBody []byte
	image      *domain.GalleryImage
	removed    int
}

func (s *stubLocationService) Create(_ context.Context, actor *domain.Principal, in ports.CreateLocationInput) (*ports.CreateLocationResult, error) {
	s.createIn = in
	loc := domain.Location{ID: "loc-1", Title: in.Title, Position: in.Position, CreatedBy: actor.ID}
	return &ports.CreateLocationResult{Location: domain.NewLocationView(&loc, nil), Replayed: s.replayed}, nil
}

func (s *stubLocationService) Update(_ context.Context, _ *domain.Principal, id string, patch ports.LocationPatch) (*domain.LocationView, error) {
	s.patch = patch
	view := domain.NewLocationView(&domain.Location{ID: id}, nil)
	return &view, nil
}

func (s *stubLocationService) Delete(_ context.Context, _ *domain.Principal, id string) error {
	if id != "loc-1" {
		return domain.ErrLocationNotFound
	}
	return nil
}

func (s *stubLocationService) AddGalleryImage(_ context.Context, _ *domain.Principal, id string, img domain.GalleryImage) (*domain.LocationView, error) {
	s.image = &img
	view := domain.NewLocationView(&domain.Location{ID: id, Gallery: []domain.GalleryImage{img}}, nil)
	return &view, nil
}

func (s *stubLocationService) UploadGalleryImage(_ context.Context, _ *domain.Principal, id string, up ports.GalleryUpload) (*domain.LocationView, error) {
	body, err := io.ReadAll(up.Body)
	if err != nil {
		return nil, err
	}
	s.upload = &up
	s.uploadBody = body
	view := domain.NewLocationView(&domain.Location{ID: id}, nil)
	return &view, nil
}

func (s *stubLocationService) RemoveGalleryImage(_ context.Context, _ *domain.Principal, id string, index int) (*domain.LocationView, error) {
	s.removed = index
	view := domain.NewLocationView(&domain.Location{ID: id}, nil)
	return &view, nil
}

var owner = &domain.Principal{ID: "u1", Name: "Alice", Role: domain.RoleUser}

const parisBody = `{"title":"Paris","description":"City of light","position":{"lat":48.85,"lng":2.35},"icon":{"url":"https://example.com/pin.png"}}`

func authedContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder) echo.Context {
	c := e.NewContext(req, rec)
	middleware.SetPrincipal(c, owner)
	return c
}

func TestLocationHandler_Create(t *testing.T) {
	e := newEcho()
	svc := &stubLocationService{}
	h := NewLocationHandler(svc)

	req := jsonRequest(http.MethodPost, "/api/location", parisBody)
	req.Header.Set(HeaderIdempotencyKey, " key-1 ")
	rec := httptest.NewRecorder()
	if err := h.Create(authedContext(e, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if svc.createIn.IdempotencyKey != "key-1" {
		t.Fatalf("unexpected idempotency key %q", svc.createIn.IdempotencyKey)
	}
	if svc.createIn.Position != (domain.Position{Lat: 48.85, Lng: 2.35}) {
		t.Fatalf("unexpected position %+v", svc.createIn.Position)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	creator, ok := resp["createdBy"].(map[string]any)
	if !ok || creator["id"] != "u1" {
		t.Fatalf("unexpected createdBy: %+v", resp["createdBy"])
	}
}

func TestLocationHandler_Create_Replay(t *testing.T) {
	e := newEcho()
	h := NewLocationHandler(&stubLocationService{replayed: true})

	rec := httptest.NewRecorder()
	if err := h.Create(authedContext(e, jsonRequest(http.MethodPost, "/api/location", parisBody), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on replay, got %d", rec.Code)
	}
}

func TestLocationHandler_Create_Validation(t *testing.T) {
	e := newEcho()
	h := NewLocationHandler(&stubLocationService{})

	cases := map[string]string{
		"missing position": `{"title":"Paris","description":"d","icon":{"url":"https://example.com/pin.png"}}`,
		"missing lat":      `{"title":"Paris","description":"d","position":{"lng":2.35},"icon":{"url":"https://example.com/pin.png"}}`,
		"latitude range":   `{"title":"Paris","description":"d","position":{"lat":95,"lng":2.35},"icon":{"url":"https://example.com/pin.png"}}`,
		"missing icon":     `{"title":"Paris","description":"d","position":{"lat":1,"lng":2}}`,
		"missing title":    `{"description":"d","position":{"lat":1,"lng":2},"icon":{"url":"https://example.com/pin.png"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			err := h.Create(authedContext(e, jsonRequest(http.MethodPost, "/api/location", body), httptest.NewRecorder()))
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}

func TestLocationHandler_Update_PartialPatch(t *testing.T) {
	e := newEcho()
	svc := &stubLocationService{}
	h := NewLocationHandler(svc)

	rec := httptest.NewRecorder()
	c := authedContext(e, jsonRequest(http.MethodPut, "/api/location/loc-1", `{"title":"Paris, France","createdBy":"u2"}`), rec)
	c.SetParamNames("id")
	c.SetParamValues("loc-1")

	if err := h.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if svc.patch.Title == nil || *svc.patch.Title != "Paris, France" {
		t.Fatalf("title not forwarded: %+v", svc.patch)
	}
	if svc.patch.Description != nil || svc.patch.Lat != nil || svc.patch.Lng != nil || svc.patch.Icon != nil || svc.patch.ImageURL != nil {
		t.Fatalf("absent fields must stay nil: %+v", svc.patch)
	}
}

func TestLocationHandler_Delete(t *testing.T) {
	e := newEcho()
	h := NewLocationHandler(&stubLocationService{})

	rec := httptest.NewRecorder()
	c := authedContext(e, httptest.NewRequest(http.MethodDelete, "/api/location/loc-1", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("loc-1")
	if err := h.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c = authedContext(e, httptest.NewRequest(http.MethodDelete, "/api/location/loc-2", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("loc-2")
	if err := h.Delete(c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLocationHandler_AddGalleryImage_JSON(t *testing.T) {
	e := newEcho()
	svc := &stubLocationService{}
	h := NewLocationHandler(svc)

	rec := httptest.NewRecorder()
	c := authedContext(e, jsonRequest(http.MethodPost, "/api/location/loc-1/gallery", `{"url":"https://example.com/a.jpg","caption":"tower"}`), rec)
	c.SetParamNames("id")
	c.SetParamValues("loc-1")
	if err := h.AddGalleryImage(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if svc.image == nil || svc.image.URL != "https://example.com/a.jpg" || svc.image.Caption != "tower" {
		t.Fatalf("unexpected image: %+v", svc.image)
	}
}

func TestLocationHandler_AddGalleryImage_Multipart(t *testing.T) {
	e := newEcho()
	svc := &stubLocationService{}
	h := NewLocationHandler(svc)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="photo.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write([]byte("png-bytes"))
	_ = mw.WriteField("caption", "sunset")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/location/loc-1/gallery", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec)
	c.SetParamNames("id")
	c.SetParamValues("loc-1")

	if err := h.AddGalleryImage(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if svc.upload == nil || svc.upload.Filename != "photo.png" || svc.upload.ContentType != "image/png" || svc.upload.Caption != "sunset" {
		t.Fatalf("unexpected upload: %+v", svc.upload)
	}
	if string(svc.uploadBody) != "png-bytes" || svc.upload.Size != int64(len("png-bytes")) {
		t.Fatalf("unexpected upload body %q size %d", svc.uploadBody, svc.upload.Size)
	}
}

func TestLocationHandler_RemoveGalleryImage(t *testing.T) {
	e := newEcho()
	svc := &stubLocationService{}
	h := NewLocationHandler(svc)

	c := authedContext(e, httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id", "imageIndex")
	c.SetParamValues("loc-1", "2")
	if err := h.RemoveGalleryImage(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if svc.removed != 2 {
		t.Fatalf("expected index 2, got %d", svc.removed)
	}

	c = authedContext(e, httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id", "imageIndex")
	c.SetParamValues("loc-1", "abc")
	if err := h.RemoveGalleryImage(c); !errors.Is(err, domain.ErrImageNotFound) {
		t.Fatalf("expected image not found, got %v", err)
	}
}

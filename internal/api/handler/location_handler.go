package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/explorer-world/explorer-api/internal/api/metrics"
	"github.com/explorer-world/explorer-api/internal/core/domain"
	"github.com/explorer-world/explorer-api/internal/core/ports"
)

// HeaderIdempotencyKey lets clients retry a location creation safely.
const HeaderIdempotencyKey = "Idempotency-Key"

// LocationHandler serves the location and gallery routes.
type LocationHandler struct {
	locations ports.LocationService
}

func NewLocationHandler(locations ports.LocationService) *LocationHandler {
	return &LocationHandler{locations: locations}
}

// List returns every location, newest first.
//
// @Summary      List locations
// @Tags         locations
// @Produce      json
// @Success      200  {array}   domain.LocationView
// @Failure      401  {object}  messageResponse
// @Router       /api/location [get]
func (h *LocationHandler) List(c echo.Context) error {
	locs, err := h.locations.List(c.Request().Context(), ports.ListLocationsFilter{})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, locs)
}

// ListByUser returns the locations created by a user, newest first.
//
// @Summary      List locations by creator
// @Tags         locations
// @Produce      json
// @Param        userId  path      string  true  "Creator id"
// @Success      200     {array}   domain.LocationView
// @Failure      401     {object}  messageResponse
// @Router       /api/location/user/{userId} [get]
func (h *LocationHandler) ListByUser(c echo.Context) error {
	locs, err := h.locations.List(c.Request().Context(), ports.ListLocationsFilter{CreatedBy: c.Param("userId")})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, locs)
}

// Get returns one location.
//
// @Summary      Get location
// @Tags         locations
// @Produce      json
// @Param        id   path      string  true  "Location id"
// @Success      200  {object}  domain.LocationView
// @Failure      404  {object}  messageResponse
// @Router       /api/location/{id} [get]
func (h *LocationHandler) Get(c echo.Context) error {
	loc, err := h.locations.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loc)
}

// Create stores a location owned by the caller. A replayed Idempotency-Key
// answers 200 with the location created by the first request, or 409 while
// that request is still running.
//
// @Summary      Create location
// @Tags         locations
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string                 false  "Client generated key"
// @Param        body             body      createLocationRequest  true   "Location"
// @Success      201              {object}  domain.LocationView
// @Success      200              {object}  domain.LocationView
// @Failure      400              {object}  messageResponse
// @Failure      403              {object}  messageResponse
// @Failure      409              {object}  messageResponse
// @Router       /api/location [post]
func (h *LocationHandler) Create(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req createLocationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	key := strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey))
	res, err := h.locations.Create(c.Request().Context(), p, toCreateLocationInput(req, key))
	if err != nil {
		return err
	}
	if res.Replayed {
		metrics.IdempotentReplaysTotal.Inc()
		return c.JSON(http.StatusOK, res.Location)
	}
	metrics.LocationMutationsTotal.WithLabelValues("create").Inc()
	return c.JSON(http.StatusCreated, res.Location)
}

// Update changes the fields present in the body.
//
// @Summary      Update location
// @Tags         locations
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true  "Location id"
// @Param        body  body      updateLocationRequest  true  "Fields to change"
// @Success      200   {object}  domain.LocationView
// @Failure      400   {object}  messageResponse
// @Failure      403   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Router       /api/location/{id} [put]
func (h *LocationHandler) Update(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req updateLocationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	loc, err := h.locations.Update(c.Request().Context(), p, c.Param("id"), toLocationPatch(req))
	if err != nil {
		return err
	}
	metrics.LocationMutationsTotal.WithLabelValues("update").Inc()
	return c.JSON(http.StatusOK, loc)
}

// Delete removes a location.
//
// @Summary      Delete location
// @Tags         locations
// @Produce      json
// @Param        id   path      string  true  "Location id"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Router       /api/location/{id} [delete]
func (h *LocationHandler) Delete(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.locations.Delete(c.Request().Context(), p, c.Param("id")); err != nil {
		return err
	}
	metrics.LocationMutationsTotal.WithLabelValues("delete").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "Location deleted successfully"})
}

// AddGalleryImage attaches an image to the gallery. JSON bodies reference an
// external URL; multipart bodies upload the file in the "file" field.
//
// @Summary      Add gallery image
// @Tags         gallery
// @Accept       json
// @Accept       multipart/form-data
// @Produce      json
// @Param        id       path      string               true   "Location id"
// @Param        body     body      galleryImageRequest  false  "External image"
// @Param        file     formData  file                 false  "Image upload"
// @Param        caption  formData  string               false  "Caption"
// @Success      201      {object}  domain.LocationView
// @Failure      400      {object}  messageResponse
// @Failure      403      {object}  messageResponse
// @Failure      404      {object}  messageResponse
// @Router       /api/location/{id}/gallery [post]
func (h *LocationHandler) AddGalleryImage(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	id := c.Param("id")

	var loc *domain.LocationView
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return domain.InvalidInput("file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return err
		}
		defer f.Close()

		loc, err = h.locations.UploadGalleryImage(ctx, p, id, ports.GalleryUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Size:        fh.Size,
			Body:        f,
			Caption:     c.FormValue("caption"),
		})
		if err != nil {
			return err
		}
	} else {
		var req galleryImageRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
		if err := c.Validate(&req); err != nil {
			return err
		}
		loc, err = h.locations.AddGalleryImage(ctx, p, id, domain.GalleryImage{URL: req.URL, Caption: req.Caption})
		if err != nil {
			return err
		}
	}

	metrics.LocationMutationsTotal.WithLabelValues("gallery_add").Inc()
	return c.JSON(http.StatusCreated, loc)
}

// RemoveGalleryImage drops the image at imageIndex.
//
// @Summary      Remove gallery image
// @Tags         gallery
// @Produce      json
// @Param        id          path      string  true  "Location id"
// @Param        imageIndex  path      int     true  "Zero based image index"
// @Success      200         {object}  domain.LocationView
// @Failure      403         {object}  messageResponse
// @Failure      404         {object}  messageResponse
// @Router       /api/location/{id}/gallery/{imageIndex} [delete]
func (h *LocationHandler) RemoveGalleryImage(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(c.Param("imageIndex"))
	if err != nil {
		return domain.ErrImageNotFound
	}

	loc, err := h.locations.RemoveGalleryImage(c.Request().Context(), p, c.Param("id"), index)
	if err != nil {
		return err
	}
	metrics.LocationMutationsTotal.WithLabelValues("gallery_remove").Inc()
	return c.JSON(http.StatusOK, loc)
}

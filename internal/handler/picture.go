package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/treelife/tree-sapling-reservation/internal/config"
	"github.com/treelife/tree-sapling-reservation/internal/repository"
	"github.com/treelife/tree-sapling-reservation/internal/storage"
)

// PictureHandler manages profile pictures: multipart upload, signed
// download URLs and the download itself.  Pictures are stored under
// an opaque uuid-based key; the person row only carries that key.
type PictureHandler struct {
	Cfg     config.Config
	Persons *repository.PersonRepo
	Store   *storage.PictureStore
}

// NewPictureHandler constructs a PictureHandler.  All dependencies
// must be non-nil.
func NewPictureHandler(cfg config.Config, persons *repository.PersonRepo, store *storage.PictureStore) *PictureHandler {
	if persons == nil || store == nil {
		panic("nil dependency passed to NewPictureHandler")
	}
	return &PictureHandler{Cfg: cfg, Persons: persons, Store: store}
}

// Upload handles POST /v1/persons/:id/picture.  The multipart field
// "file" is stored under a fresh uuid key which replaces any previous
// picture reference on the person.
func (h *PictureHandler) Upload(c echo.Context) error {
	personID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid person id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if _, err := h.Persons.GetByID(ctx, personID); err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "person not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read file"})
	}
	defer src.Close()

	// Opaque key: uuid plus the original extension, nothing else of
	// the client-supplied name survives.
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if len(ext) > 8 || strings.ContainsAny(ext, `/\`) {
		ext = ""
	}
	filename := uuid.NewString() + ext

	if err := h.Store.Save(filename, src); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store picture failed"})
	}
	if err := h.Persons.SetPictureFilename(ctx, personID, filename); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save picture reference failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"filename": filename})
}

// URL handles GET /v1/persons/:id/picture-url.  It returns a signed,
// expiring download link for the person's picture, mirroring an
// object store's presigned URL.
func (h *PictureHandler) URL(c echo.Context) error {
	personID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid person id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Persons.GetByID(ctx, personID)
	if err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "person not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if p.PictureFilename == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no picture uploaded"})
	}

	ttl := time.Duration(h.Cfg.PictureURLTTLMin) * time.Minute
	token, err := storage.SignPictureToken(h.Cfg.PictureSecret, *p.PictureFilename, ttl)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue picture token failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"url":        fmt.Sprintf("/v1/pictures/%s?token=%s", *p.PictureFilename, url.QueryEscape(token)),
		"expires_at": time.Now().UTC().Add(ttl).Format(time.RFC3339),
	})
}

// Serve handles GET /v1/pictures/:filename.  The token query
// parameter must carry a valid signature for exactly this filename.
func (h *PictureHandler) Serve(c echo.Context) error {
	filename := c.Param("filename")
	token := c.QueryParam("token")
	if err := storage.VerifyPictureToken(h.Cfg.PictureSecret, filename, token); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid or expired token"})
	}
	rc, err := h.Store.Open(filename)
	if err != nil {
		if errors.Is(err, storage.ErrPictureNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "picture not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "read picture failed"})
	}
	defer rc.Close()
	return c.Stream(http.StatusOK, "application/octet-stream", rc)
}

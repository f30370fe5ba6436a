package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/learnchat/internal/domain"
)

// multipartOverhead leaves room for the multipart framing around the file.
const multipartOverhead = 1 << 20

// Upload stores an image and returns its public URL.
// POST /api/upload (multipart, field "image")
func (h *Handler) Upload(c echo.Context) error {
	if limit := h.service.MaxUploadSize(); limit > 0 {
		c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, limit+multipartOverhead)
	}
	file, err := c.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return h.fail(c, domain.ErrUploadTooLarge, "File upload failed")
		}
		return badRequest(c, "No file uploaded")
	}

	src, err := file.Open()
	if err != nil {
		return h.fail(c, err, "File upload failed")
	}
	defer src.Close()

	name, err := h.service.SaveUpload(c.Request().Context(), file.Filename, src)
	if err != nil {
		return h.fail(c, err, "File upload failed")
	}

	req := c.Request()
	proto := req.Header.Get("X-Forwarded-Proto")
	if proto == "" {
		proto = "http"
	}
	return c.JSON(http.StatusOK, domain.UploadResult{
		ImageURL:    proto + "://" + req.Host + "/uploads/" + name,
		Name:        file.Filename,
		ContentType: file.Header.Get(echo.HeaderContentType),
	})
}

// Extract downloads a PDF and returns its text.
// POST /api/extract
func (h *Handler) Extract(c echo.Context) error {
	var req domain.ExtractRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	doc, err := h.service.ExtractPDF(c.Request().Context(), &req)
	if err != nil {
		return h.fail(c, err, "Failed to extract PDF")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    doc,
	})
}

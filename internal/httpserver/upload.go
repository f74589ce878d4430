package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/docshelf/internal/logging"
	mwauth "github.com/Skotchmaster/docshelf/internal/middleware/auth"
	"github.com/Skotchmaster/docshelf/internal/service"
)

const formField = "file"

type UploadHTTP struct {
	Svc *service.UploadService
}

func (h *UploadHTTP) Upload(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "upload")

	var in *service.FileInput
	fh, err := c.FormFile(formField)
	switch {
	case err == nil:
		in = &service.FileInput{
			Name:        fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Size:        fh.Size,
			Open:        func() (io.ReadCloser, error) { return fh.Open() },
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fail(c, l, "upload_error", echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Request body too large"))
		}
		return fail(c, l, "upload_error", err)
	}

	doc, err := h.Svc.Accept(ctx, mwauth.CurrentUser(c), in)
	if err != nil {
		return fail(c, l, "upload_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "document": doc})
}

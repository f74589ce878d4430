package httpserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/docshelf/internal/common"
	"github.com/Skotchmaster/docshelf/internal/logging"
	mwauth "github.com/Skotchmaster/docshelf/internal/middleware/auth"
	"github.com/Skotchmaster/docshelf/internal/service"
)

type DocumentsHTTP struct {
	Svc *service.DocumentService
}

func (h *DocumentsHTTP) Mine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "documents_my")

	docs, err := h.Svc.ListOwnedBy(ctx, mwauth.CurrentUser(c))
	if err != nil {
		return fail(c, l, "list_documents_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "documents": docs})
}

func (h *DocumentsHTTP) All(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "documents_all")

	docs, err := h.Svc.ListAll(ctx, mwauth.CurrentUser(c))
	if err != nil {
		return fail(c, l, "list_documents_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "documents": docs})
}

func (h *DocumentsHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "documents_delete")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return fail(c, l, "delete_document_error", fmt.Errorf("Document not found: %w", common.ErrNotFound))
	}

	if err := h.Svc.DeleteByID(ctx, mwauth.CurrentUser(c), id); err != nil {
		return fail(c, l, "delete_document_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *DocumentsHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "documents_search")

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	total, docs, err := h.Svc.Search(ctx, mwauth.CurrentUser(c), c.QueryParam("q"), page, size)
	if err != nil {
		return fail(c, l, "search_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "total": total, "documents": docs})
}

// handlers_document.go - Voucher download handlers
package api

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/activofijo/vales-resguardo/internal/document"
)

// HeaderSkippedEmployees carries how many employees an archive left out.
const HeaderSkippedEmployees = "X-Skipped-Employees"

// DocumentHandlerImpl implements the DocumentHandler interface
type DocumentHandlerImpl struct {
	sessionMgr SessionManager
	vouchers   VoucherRenderer
	archives   ArchiveRenderer
	logger     *zap.Logger
}

// NewDocumentHandler creates a new document handler instance
func NewDocumentHandler(sessionMgr SessionManager, vouchers VoucherRenderer, archives ArchiveRenderer, logger *zap.Logger) DocumentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentHandlerImpl{
		sessionMgr: sessionMgr,
		vouchers:   vouchers,
		archives:   archives,
		logger:     logger,
	}
}

// HandleGetDocument renders the voucher of the requested or selected employee
func (h *DocumentHandlerImpl) HandleGetDocument(c echo.Context) error {
	name, ds, err := selectedDataset(h.sessionMgr, c)
	if err != nil {
		return err
	}

	doc, err := h.vouchers.RenderEmployee(ds, name)
	if err != nil {
		return err
	}

	h.logger.Info("voucher downloaded",
		zap.String("session", c.Param("id")),
		zap.String("employee", name),
		zap.Int("pages", doc.Pages))
	return attachment(c, doc.FileName, document.ContentTypePDF, doc.Data)
}

// HandleGetArchive renders every voucher of the session into one zip file
func (h *DocumentHandlerImpl) HandleGetArchive(c echo.Context) error {
	id := c.Param("id")
	ds, ok := h.sessionMgr.Dataset(id)
	if !ok {
		return NewNotFoundError("session", id)
	}

	archive, err := h.archives.RenderAll(ds)
	if err != nil {
		return err
	}
	data, err := archive.Bytes()
	if err != nil {
		return NewInternalError("failed to build archive", err)
	}

	skipped := len(archive.Skipped) + len(archive.Failed)
	c.Response().Header().Set(HeaderSkippedEmployees, strconv.Itoa(skipped))
	h.logger.Info("archive downloaded",
		zap.String("session", id),
		zap.Int("vouchers", len(archive.Entries)),
		zap.Int("skipped", skipped))
	return attachment(c, document.ArchiveName, document.ContentTypeArchive, data)
}

func attachment(c echo.Context, fileName, contentType string, data []byte) error {
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": fileName})
	c.Response().Header().Set(echo.HeaderContentDisposition, disposition)
	return c.Blob(http.StatusOK, contentType, data)
}

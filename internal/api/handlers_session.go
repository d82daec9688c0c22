// handlers_session.go - Upload session handlers
package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/activofijo/vales-resguardo/internal/models"
	"github.com/activofijo/vales-resguardo/internal/session"
	"github.com/activofijo/vales-resguardo/internal/storage"
	"github.com/activofijo/vales-resguardo/internal/upload"
)

// ContentTypeMsgpack is the media type of binary record previews.
const ContentTypeMsgpack = "application/x-msgpack"

// SessionHandlerImpl implements the SessionHandler interface
type SessionHandlerImpl struct {
	store      storage.Store
	sessionMgr SessionManager
	processor  Processor
	allowed    []string
	logger     *zap.Logger
}

// NewSessionHandler creates a new session handler instance. An empty
// allowed list accepts every extension the readers understand.
func NewSessionHandler(store storage.Store, sessionMgr SessionManager, processor Processor, allowed []string, logger *zap.Logger) SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandlerImpl{
		store:      store,
		sessionMgr: sessionMgr,
		processor:  processor,
		allowed:    allowed,
		logger:     logger,
	}
}

type selectEmployeeRequest struct {
	Employee string `json:"employee"`
}

// recordsResponse is the record preview of one employee.
type recordsResponse struct {
	Employee  string              `json:"employee" msgpack:"employee"`
	Items     int                 `json:"items" msgpack:"items"`
	Total     float64             `json:"total" msgpack:"total"`
	TotalText string              `json:"totalText" msgpack:"totalText"`
	Records   []models.RecordView `json:"records" msgpack:"records"`
}

// HandleCreateSession accepts a multipart spreadsheet and opens a session over it
func (h *SessionHandlerImpl) HandleCreateSession(c echo.Context) error {
	info, result, err := h.receiveUpload(c)
	if err != nil {
		return err
	}

	sess, err := h.sessionMgr.Create(info, result.Dataset, result.ProcessingTime)
	if err != nil {
		h.discard(info.ID)
		return err
	}
	return c.JSON(http.StatusCreated, sess)
}

// HandleGetSession returns the session summary
func (h *SessionHandlerImpl) HandleGetSession(c echo.Context) error {
	id := c.Param("id")
	sess, ok := h.sessionMgr.Get(id)
	if !ok {
		return NewNotFoundError("session", id)
	}
	return c.JSON(http.StatusOK, sess)
}

// HandleDeleteSession removes the uploaded file and closes its session
func (h *SessionHandlerImpl) HandleDeleteSession(c echo.Context) error {
	id := c.Param("id")
	if err := h.sessionMgr.Remove(id); err != nil {
		return NewNotFoundError("session", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleReplaceFile swaps the dataset of a session for a new upload
func (h *SessionHandlerImpl) HandleReplaceFile(c echo.Context) error {
	id := c.Param("id")
	if _, ok := h.sessionMgr.Get(id); !ok {
		return NewNotFoundError("session", id)
	}

	info, result, err := h.receiveUpload(c)
	if err != nil {
		return err
	}

	sess, err := h.sessionMgr.Replace(id, info, result.Dataset, result.ProcessingTime)
	if err != nil {
		h.discard(info.ID)
		return err
	}
	return c.JSON(http.StatusOK, sess)
}

// HandleSelectEmployee changes the selected employee of a session
func (h *SessionHandlerImpl) HandleSelectEmployee(c echo.Context) error {
	var req selectEmployeeRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if strings.TrimSpace(req.Employee) == "" {
		return NewValidationError("employee")
	}

	sess, err := h.sessionMgr.Select(c.Param("id"), req.Employee)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess)
}

// HandleGetRecords returns the record preview of an employee as JSON
func (h *SessionHandlerImpl) HandleGetRecords(c echo.Context) error {
	resp, err := h.records(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// HandleGetRecordsMsgpack returns the record preview encoded as msgpack
func (h *SessionHandlerImpl) HandleGetRecordsMsgpack(c echo.Context) error {
	resp, err := h.records(c)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(resp)
	if err != nil {
		return NewInternalError("failed to encode records", err)
	}
	return c.Blob(http.StatusOK, ContentTypeMsgpack, data)
}

// HandleSessionKeepAlive extends session lifetime for active use
func (h *SessionHandlerImpl) HandleSessionKeepAlive(c echo.Context) error {
	id := c.Param("id")
	if ok := h.sessionMgr.Touch(id); !ok {
		return NewNotFoundError("session", id)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *SessionHandlerImpl) records(c echo.Context) (*recordsResponse, error) {
	name, ds, err := selectedDataset(h.sessionMgr, c)
	if err != nil {
		return nil, err
	}

	records := ds.RecordsFor(name)
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", session.ErrUnknownEmployee, name)
	}
	total := models.SumValues(records)
	return &recordsResponse{
		Employee:  name,
		Items:     len(records),
		Total:     total.InexactFloat64(),
		TotalText: models.FormatCurrency(total),
		Records:   models.NewRecordViews(records),
	}, nil
}

// receiveUpload stores the multipart "file" field and processes it. The
// stored file is removed again when processing fails.
func (h *SessionHandlerImpl) receiveUpload(c echo.Context) (*models.FileInfo, *upload.Result, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, nil, NewValidationError("file")
	}
	name := filepath.Base(fh.Filename)
	if !h.extensionAllowed(name) {
		return nil, nil, NewUnsupportedMediaError(name)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, nil, NewBadRequestError("failed to open upload", err)
	}
	defer src.Close()

	info, err := h.store.Save(name, src)
	if err != nil {
		if apiErr := mapDomainError(err); apiErr != nil {
			return nil, nil, apiErr
		}
		return nil, nil, NewInternalError("failed to save file", err)
	}

	data, err := h.store.Data(info.ID)
	if err != nil {
		h.discard(info.ID)
		return nil, nil, NewInternalError("failed to read stored file", err)
	}

	result, err := h.processor.Process(name, data)
	if err != nil {
		h.discard(info.ID)
		h.logger.Warn("upload rejected", zap.String("file", name), zap.Error(err))
		return nil, nil, processingError(err)
	}
	return info, result, nil
}

func (h *SessionHandlerImpl) extensionAllowed(name string) bool {
	if len(h.allowed) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range h.allowed {
		if ext == a {
			return true
		}
	}
	return false
}

func (h *SessionHandlerImpl) discard(fileID string) {
	if err := h.store.Delete(fileID); err != nil {
		h.logger.Debug("discard stored file", zap.String("file", fileID), zap.Error(err))
	}
}

// selectedDataset resolves the employee of a request: the "employee" query
// parameter when given, the session selection otherwise.
func selectedDataset(sessions SessionManager, c echo.Context) (string, *models.Dataset, error) {
	id := c.Param("id")
	selected, ds, ok := sessions.Selection(id)
	if !ok {
		return "", nil, NewNotFoundError("session", id)
	}
	name := selected
	if q := c.QueryParam("employee"); q != "" {
		name = q
	}
	if name == "" {
		return "", nil, NewValidationError("employee")
	}
	return name, ds, nil
}

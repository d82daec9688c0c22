package api

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/activofijo/vales-resguardo/internal/document"
	"github.com/activofijo/vales-resguardo/internal/models"
	"github.com/activofijo/vales-resguardo/internal/session"
	"github.com/activofijo/vales-resguardo/internal/storage"
	"github.com/activofijo/vales-resguardo/internal/testutil"
	"github.com/activofijo/vales-resguardo/internal/upload"
)

type testServer struct {
	e        *echo.Echo
	store    *storage.MemoryStore
	sessions *session.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := storage.NewMemoryStore(0)
	sessions := session.NewManager(session.Options{
		OnRelease: func(fileID string) { _ = store.Delete(fileID) },
	})
	gen := document.NewGenerator(document.Options{
		Now: func() time.Time { return time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC) },
	})

	e := echo.New()
	SetupMiddleware(e, MiddlewareConfig{}, nil)
	RegisterRoutes(e, NewHandlers(&Dependencies{
		Store:      store,
		SessionMgr: sessions,
		Processor:  upload.NewProcessor(nil, 0, nil),
		Vouchers:   gen,
		Archives:   document.NewBatch(gen, nil),
		Allowed:    []string{".xlsx", ".xls", ".csv", ".gz", ".xz"},
		Version:    "test",
	}))
	return &testServer{e: e, store: store, sessions: sessions}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, method, target, fileName string, data []byte) *http.Request {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	return apiErr
}

func (s *testServer) createSession(t *testing.T) *models.Session {
	t.Helper()
	rec := s.do(uploadRequest(t, http.MethodPost, "/api/sessions", "inventario.xlsx", testutil.SampleWorkbook(t)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var sess models.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	return &sess
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	s.createSession(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"sessions":1`)
}

func TestCreateSession(t *testing.T) {
	s := newTestServer(t)
	sess := s.createSession(t)

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "inventario.xlsx", sess.FileName)
	assert.Equal(t, []string{"JUAN PEREZ LOPEZ", "MARIA GARCIA HERNANDEZ"}, sess.Employees)
	assert.Equal(t, "JUAN PEREZ LOPEZ", sess.SelectedEmployee)
	assert.Equal(t, 2, sess.Stats.Items)
	assert.True(t, sess.HasQR)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), sess.ID)
}

func TestCreateSession_Rejections(t *testing.T) {
	t.Run("missing column", func(t *testing.T) {
		s := newTestServer(t)
		data := testutil.BuildWorkbook(t, []string{"NOMBRE", "DESCRIPCION"}, [][]any{{"JUAN", "MESA"}})

		rec := s.do(uploadRequest(t, http.MethodPost, "/api/sessions", "inventario.xlsx", data))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		apiErr := decodeError(t, rec)
		assert.Equal(t, "MISSING_COLUMN", apiErr.Code)
		assert.Contains(t, apiErr.Message, "VALOR")

		files, err := s.store.List(0)
		require.NoError(t, err)
		assert.Empty(t, files, "rejected upload is not kept")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		s := newTestServer(t)
		rec := s.do(uploadRequest(t, http.MethodPost, "/api/sessions", "notas.txt", []byte("hola")))
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
		assert.Equal(t, "UNSUPPORTED_FILE", decodeError(t, rec).Code)
	})

	t.Run("header only", func(t *testing.T) {
		s := newTestServer(t)
		rec := s.do(uploadRequest(t, http.MethodPost, "/api/sessions", "inventario.csv", []byte("NOMBRE,DESCRIPCION,VALOR\n")))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("no file field", func(t *testing.T) {
		s := newTestServer(t)
		rec := s.do(jsonRequest(http.MethodPost, "/api/sessions", `{}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Code)
	})
}

func TestSelectEmployee(t *testing.T) {
	s := newTestServer(t)
	sess := s.createSession(t)

	rec := s.do(jsonRequest(http.MethodPut, "/api/sessions/"+sess.ID+"/selection", `{"employee":"MARIA GARCIA HERNANDEZ"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"selectedEmployee":"MARIA GARCIA HERNANDEZ"`)

	rec = s.do(jsonRequest(http.MethodPut, "/api/sessions/"+sess.ID+"/selection", `{"employee":"NADIE"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "EMPLOYEE_NOT_FOUND", decodeError(t, rec).Code)

	rec = s.do(jsonRequest(http.MethodPut, "/api/sessions/"+sess.ID+"/selection", `{"employee":""}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(jsonRequest(http.MethodPut, "/api/sessions/missing/selection", `{"employee":"NADIE"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRecords(t *testing.T) {
	s := newTestServer(t)
	sess := s.createSession(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID+"/records", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp recordsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "JUAN PEREZ LOPEZ", resp.Employee)
	assert.Equal(t, 1, resp.Items)
	assert.Equal(t, "$1500.00", resp.TotalText)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "ESCRITORIO OFICINA", resp.Records[0].Description)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID+"/records/msgpack?employee=MARIA+GARCIA+HERNANDEZ", nil)
	rec = s.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentTypeMsgpack, rec.Header().Get(echo.HeaderContentType))
	var packed recordsResponse
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &packed))
	assert.Equal(t, "MARIA GARCIA HERNANDEZ", packed.Employee)
	assert.Equal(t, "$2500.50", packed.TotalText)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID+"/records?employee=NADIE", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDocument(t *testing.T) {
	s := newTestServer(t)
	sess := s.createSession(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID+"/document", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, document.ContentTypePDF, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "Vale_Resguardo_JUAN_PEREZ_LOPEZ.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID+"/document?employee=NADIE", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "EMPLOYEE_NOT_FOUND", decodeError(t, rec).Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/sessions/missing/document", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetArchive(t *testing.T) {
	s := newTestServer(t)
	sess := s.createSession(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID+"/archive", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, document.ContentTypeArchive, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), document.ArchiveName)
	assert.Equal(t, "0", rec.Header().Get(HeaderSkippedEmployees))

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	// discovery order of the sheet
	assert.Equal(t, []string{
		"Vale_Resguardo_JUAN_PEREZ_LOPEZ.pdf",
		"Vale_Resguardo_MARIA_GARCIA_HERNANDEZ.pdf",
	}, names)
}

func TestReplaceFile(t *testing.T) {
	s := newTestServer(t)
	sess := s.createSession(t)
	data := testutil.BuildWorkbook(t, []string{"NOMBRE", "DESCRIPCION", "VALOR"}, [][]any{
		{"ZOE RUIZ", "MESA", 10},
		{"ANA DIAZ", "SILLA", 20},
	})

	rec := s.do(uploadRequest(t, http.MethodPut, "/api/sessions/"+sess.ID+"/file", "nuevo.xlsx", data))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var replaced models.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &replaced))
	assert.Equal(t, sess.ID, replaced.ID)
	assert.Equal(t, "nuevo.xlsx", replaced.FileName)
	assert.Equal(t, "ANA DIAZ", replaced.SelectedEmployee)
	assert.False(t, replaced.HasQR)

	_, err := s.store.Get(sess.FileID)
	assert.ErrorIs(t, err, storage.ErrNotFound, "previous upload released")

	rec = s.do(uploadRequest(t, http.MethodPut, "/api/sessions/missing/file", "nuevo.xlsx", data))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteSession(t *testing.T) {
	s := newTestServer(t)
	sess := s.createSession(t)

	rec := s.do(httptest.NewRequest(http.MethodDelete, "/api/sessions/"+sess.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := s.store.Get(sess.FileID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(httptest.NewRequest(http.MethodDelete, "/api/sessions/"+sess.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionKeepAlive(t *testing.T) {
	s := newTestServer(t)
	sess := s.createSession(t)

	rec := s.do(httptest.NewRequest(http.MethodPost, "/api/sessions/"+sess.ID+"/keepalive", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = s.do(httptest.NewRequest(http.MethodPost, "/api/sessions/missing/keepalive", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

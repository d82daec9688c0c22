// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/activofijo/vales-resguardo/internal/document"
	"github.com/activofijo/vales-resguardo/internal/models"
	"github.com/activofijo/vales-resguardo/internal/upload"
)

// SessionHandler handles upload sessions and their selection
type SessionHandler interface {
	HandleCreateSession(c echo.Context) error
	HandleGetSession(c echo.Context) error
	HandleDeleteSession(c echo.Context) error
	HandleReplaceFile(c echo.Context) error
	HandleSelectEmployee(c echo.Context) error
	HandleGetRecords(c echo.Context) error
	HandleGetRecordsMsgpack(c echo.Context) error
	HandleSessionKeepAlive(c echo.Context) error
}

// DocumentHandler handles voucher and archive downloads
type DocumentHandler interface {
	HandleGetDocument(c echo.Context) error
	HandleGetArchive(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// SessionManager defines the interface for session management
// This allows mocking in tests
type SessionManager interface {
	Create(file *models.FileInfo, ds *models.Dataset, processing time.Duration) (*models.Session, error)
	Get(id string) (*models.Session, bool)
	Dataset(id string) (*models.Dataset, bool)
	Selection(id string) (string, *models.Dataset, bool)
	Select(id, name string) (*models.Session, error)
	Replace(id string, file *models.FileInfo, ds *models.Dataset, processing time.Duration) (*models.Session, error)
	Remove(id string) error
	Touch(id string) bool
	Count() int
}

// Processor turns uploaded bytes into a dataset
type Processor interface {
	Process(fileName string, data []byte) (*upload.Result, error)
}

// VoucherRenderer renders the voucher of one employee of a dataset
type VoucherRenderer interface {
	RenderEmployee(ds *models.Dataset, name string) (*document.Document, error)
}

// ArchiveRenderer renders the vouchers of every employee of a dataset
type ArchiveRenderer interface {
	RenderAll(ds *models.Dataset) (*document.Archive, error)
}

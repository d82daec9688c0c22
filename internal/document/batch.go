package document

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"

	"github.com/activofijo/vales-resguardo/internal/models"
)

const (
	ArchiveName        = "Todos_Los_Vales_de_Resguardo.zip"
	ContentTypeArchive = "application/zip"
)

// Renderer draws one employee voucher.
type Renderer interface {
	Render(employeeName string, records []models.InventoryRecord) (*Document, error)
}

// Entry is one file of an archive.
type Entry struct {
	FileName string
	Employee string
	Data     []byte
}

// Archive collects the vouchers of a batch run.
type Archive struct {
	Entries []Entry
	Skipped []string          // employees with no records
	Failed  map[string]string // employee -> render error
}

// Batch renders the vouchers of every employee of a dataset.
type Batch struct {
	renderer Renderer
	logger   *zap.Logger
}

// NewBatch creates a batch over renderer. A nil logger discards output.
func NewBatch(renderer Renderer, logger *zap.Logger) *Batch {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Batch{renderer: renderer, logger: logger}
}

// RenderAll renders every employee of ds in discovery order.
func (b *Batch) RenderAll(ds *models.Dataset) (*Archive, error) {
	if ds.IsEmpty() {
		return nil, ErrEmptyDataset
	}
	return b.RenderGroups(ds.Groups()), nil
}

// RenderGroups renders the given groups. Empty groups are skipped and
// failing employees are recorded; neither stops the batch.
func (b *Batch) RenderGroups(groups []models.EmployeeGroup) *Archive {
	start := time.Now()
	archive := &Archive{Failed: make(map[string]string)}
	used := make(map[string]int)

	for _, g := range groups {
		if len(g.Records) == 0 {
			b.logger.Warn("skipping employee without records", zap.String("employee", g.Name))
			archive.Skipped = append(archive.Skipped, g.Name)
			continue
		}

		doc, err := b.renderer.Render(g.Name, g.Records)
		if err != nil {
			b.logger.Warn("failed to render voucher",
				zap.String("employee", g.Name), zap.Error(err))
			archive.Failed[g.Name] = err.Error()
			continue
		}

		archive.Entries = append(archive.Entries, Entry{
			FileName: uniqueName(entryName(doc.FileName), used),
			Employee: g.Name,
			Data:     doc.Data,
		})
	}

	b.logger.Info("batch rendered",
		zap.Int("employees", len(groups)),
		zap.Int("vouchers", len(archive.Entries)),
		zap.Int("skipped", len(archive.Skipped)),
		zap.Int("failed", len(archive.Failed)),
		zap.Duration("elapsed", time.Since(start)))
	return archive
}

// WriteZip writes the archive entries as a deflate-compressed zip.
func (a *Archive) WriteZip(w io.Writer) error {
	return a.writeZip(w, time.Now())
}

func (a *Archive) writeZip(w io.Writer, modified time.Time) error {
	zw := zip.NewWriter(w)
	for _, e := range a.Entries {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.FileName,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return fmt.Errorf("add %s: %w", e.FileName, err)
		}
		if _, err := fw.Write(e.Data); err != nil {
			return fmt.Errorf("write %s: %w", e.FileName, err)
		}
	}
	return zw.Close()
}

// Bytes returns the zip archive in memory.
func (a *Archive) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := a.WriteZip(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// entryName keeps names from introducing directories inside the archive.
func entryName(name string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(name)
}

func uniqueName(name string, used map[string]int) string {
	n := used[name]
	used[name] = n + 1
	if n == 0 {
		return name
	}
	ext := ""
	base := name
	if i := strings.LastIndex(name, "."); i > 0 {
		base, ext = name[:i], name[i:]
	}
	return fmt.Sprintf("%s_%d%s", base, n+1, ext)
}

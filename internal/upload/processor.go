package upload

import (
	"bytes"
	"time"

	"go.uber.org/zap"

	"github.com/activofijo/vales-resguardo/internal/inventory"
	"github.com/activofijo/vales-resguardo/internal/models"
	"github.com/activofijo/vales-resguardo/internal/parser"
)

// Result is a processed upload.
type Result struct {
	FileName       string // name of the spreadsheet after decompression
	Dataset        *models.Dataset
	ProcessingTime time.Duration
}

// Processor decompresses, reads and normalizes uploaded spreadsheets.
type Processor struct {
	registry   *parser.Registry
	normalizer *inventory.Normalizer
	maxSize    int64
	logger     *zap.Logger
}

// NewProcessor wires a processor. A nil registry uses the global one.
func NewProcessor(registry *parser.Registry, maxSize int64, logger *zap.Logger) *Processor {
	if registry == nil {
		registry = parser.GetGlobalRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		registry:   registry,
		normalizer: inventory.NewNormalizer(logger.Named("normalizer")),
		maxSize:    maxSize,
		logger:     logger,
	}
}

// Process turns the raw bytes of an uploaded file into a dataset.
func (p *Processor) Process(fileName string, data []byte) (*Result, error) {
	start := time.Now()

	name, raw, err := Decompress(fileName, data, p.maxSize)
	if err != nil {
		return nil, err
	}
	if name != fileName {
		p.logger.Debug("upload decompressed",
			zap.String("file", fileName),
			zap.Int("compressed", len(data)),
			zap.Int("size", len(raw)))
	}

	table, err := p.registry.Read(name, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	ds, err := p.normalizer.Normalize(table)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	p.logger.Info("upload processed",
		zap.String("file", name),
		zap.String("sheet", table.Sheet),
		zap.Int("records", len(ds.Records)),
		zap.Duration("elapsed", elapsed))

	return &Result{FileName: name, Dataset: ds, ProcessingTime: elapsed}, nil
}

package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"shopbridge/internal/domain"
	"shopbridge/internal/service/catalog"

	"go.uber.org/zap"
)

type ProductWriter interface {
	Import(ctx context.Context, in catalog.AddProductInput) (*domain.Product, error)
}

// Required columns. Optional ones are description, image_url, product_url,
// category and platform_label.
var requiredColumns = []string{"name", "platform", "base_price"}

// CSVImporter reads marketplace product exports and adds them to the
// catalog priced under the current markup.
type CSVImporter struct {
	reader *csv.Reader
	writer ProductWriter
	logger *zap.Logger
}

func NewCSVImporter(r io.Reader, writer ProductWriter, logger *zap.Logger) *CSVImporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	csvr.TrimLeadingSpace = true
	return &CSVImporter{reader: csvr, writer: writer, logger: logger.Named("importer")}
}

// Run imports every row and returns the number of products created. It
// stops at the first invalid row; rows before it stay imported.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return 0, fmt.Errorf("missing column %q", col)
		}
	}

	imported := 0
	for line := 2; ; line++ {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}
		if blank(record) {
			continue
		}
		in, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", line, err)
		}
		p, err := i.writer.Import(ctx, in)
		if err != nil {
			return imported, fmt.Errorf("row %d: import %q: %w", line, in.Name, err)
		}
		i.logger.Debug("product imported", zap.Int64("product_id", p.ID), zap.String("name", p.Name))
		imported++
	}
	return imported, nil
}

func parseRow(record []string, index map[string]int) (catalog.AddProductInput, error) {
	platform, err := domain.ParsePlatform(pick(record, index, "platform"), pick(record, index, "platform_label"))
	if err != nil {
		return catalog.AddProductInput{}, err
	}
	priceStr := pick(record, index, "base_price")
	price, err := strconv.ParseInt(priceStr, 10, 64)
	if err != nil {
		return catalog.AddProductInput{}, fmt.Errorf("%w: base_price %q is not an integer amount in minor units", domain.ErrInvalidArgument, priceStr)
	}
	return catalog.AddProductInput{
		Name:        pick(record, index, "name"),
		Description: pick(record, index, "description"),
		ImageURL:    pick(record, index, "image_url"),
		ProductURL:  pick(record, index, "product_url"),
		Category:    pick(record, index, "category"),
		Platform:    platform,
		BasePrice:   price,
	}, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

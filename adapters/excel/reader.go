package excel

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"evdash/domain/dataset"
	"evdash/internal/errors"
	"evdash/internal/logging"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	fileTypeXLSX = "xlsx"
	fileTypeCSV  = "csv"
)

// DataReader handles reading Excel and CSV files, either from disk or from
// an in-memory upload
type DataReader struct {
	name     string
	filePath string
	content  []byte
	fileType string
	config   ReaderConfig
	logger   *zap.Logger
}

// FileType returns the storage format implied by a file name
func FileType(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return fileTypeXLSX, nil
	case ".csv", ".txt":
		return fileTypeCSV, nil
	default:
		return "", errors.InvalidInput("unsupported file type: " + name + " (expected .xlsx or .csv)")
	}
}

// NewDataReader creates a reader for a file on disk
func NewDataReader(filePath string, config ReaderConfig, logger *zap.Logger) *DataReader {
	fileType, _ := FileType(filePath)
	return &DataReader{
		name:     filepath.Base(filePath),
		filePath: filePath,
		fileType: fileType,
		config:   config,
		logger:   logging.OrNop(logger),
	}
}

// NewStreamReader creates a reader for uploaded content; name decides the format
func NewStreamReader(name string, content []byte, config ReaderConfig, logger *zap.Logger) *DataReader {
	fileType, _ := FileType(name)
	return &DataReader{
		name:     name,
		content:  content,
		fileType: fileType,
		config:   config,
		logger:   logging.OrNop(logger),
	}
}

// ReadData reads data from Excel or CSV into a raw table
func (r *DataReader) ReadData() (*dataset.RawTable, error) {
	r.logger.Debug("reading file", zap.String("file", r.name), zap.String("type", r.fileType))

	if r.fileType == "" {
		_, err := FileType(r.name)
		return nil, err
	}

	if r.content == nil {
		if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
			return nil, errors.NotFound(strings.ToUpper(r.fileType) + " file " + r.filePath)
		}
	}

	switch r.fileType {
	case fileTypeCSV:
		return r.readCSVData()
	default:
		return r.readExcelData()
	}
}

// readExcelData reads the configured sheet, or the first one
func (r *DataReader) readExcelData() (*dataset.RawTable, error) {
	startTime := time.Now()

	var (
		f   *excelize.File
		err error
	)
	if r.content != nil {
		f, err = excelize.OpenReader(bytes.NewReader(r.content))
	} else {
		f, err = excelize.OpenFile(r.filePath)
	}
	if err != nil {
		return nil, errors.ParseError("failed to open Excel file "+r.name, err)
	}
	defer f.Close()

	sheet := r.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.InsufficientData("Excel file " + r.name + " has no sheets")
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, errors.NotFound("sheet " + sheet + " in " + r.name)
	}

	// Raw values keep date cells as serial day numbers instead of their
	// display format, which depends on the workbook's locale and styles
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.ParseError("failed to read sheet "+sheet, err)
	}
	r.logger.Debug("sheet read",
		zap.String("file", r.name),
		zap.String("sheet", sheet),
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", time.Since(startTime)))

	return r.processRows(rows)
}

// readCSVData decodes the text encoding, then parses CSV records
func (r *DataReader) readCSVData() (*dataset.RawTable, error) {
	raw := r.content
	if raw == nil {
		var err error
		raw, err = os.ReadFile(r.filePath)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open CSV file %s", r.filePath)
		}
	}

	text, encoding, err := decodeText(raw, r.config.Encoding)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", r.name)
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	readStart := time.Now()
	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.ParseError("failed to read CSV file "+r.name, err)
		}
		rows = append(rows, record)
	}
	r.logger.Debug("csv read",
		zap.String("file", r.name),
		zap.String("encoding", encoding),
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", time.Since(readStart)))

	return r.processRows(rows)
}

// processRows converts raw string rows into a RawTable, skipping blank rows
func (r *DataReader) processRows(rows [][]string) (*dataset.RawTable, error) {
	if len(rows) < 2 {
		return nil, errors.InsufficientData(r.name + " must have at least a header row and one data row")
	}

	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
	}

	dataRows := make([]dataset.RawRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rowData := make(dataset.RawRow, len(headers))
		for j, cell := range row {
			if j < len(headers) && headers[j] != "" {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	if len(dataRows) == 0 {
		return nil, errors.InsufficientData(r.name + " has no data rows")
	}

	r.logger.Info("file processed",
		zap.String("file", r.name),
		zap.Int("columns", len(headers)),
		zap.Int("rows", len(dataRows)))

	return &dataset.RawTable{
		Name:    r.name,
		Headers: headers,
		Rows:    dataRows,
	}, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

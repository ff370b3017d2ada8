package excel

// ReaderConfig holds how tabular files are decoded
type ReaderConfig struct {
	// Sheet selects the worksheet; empty means the first sheet in the workbook
	Sheet string `json:"sheet"`
	// Encoding applies to CSV input: utf-8, euc-kr, cp949 or auto
	Encoding string `json:"encoding"`
}

// DefaultReaderConfig returns sensible defaults for file processing
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		Encoding: "auto",
	}
}

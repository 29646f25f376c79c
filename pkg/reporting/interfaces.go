package reporting

import (
	"time"

	"github.com/ducminhle1904/polymarket-risk/internal/risk"
)

// ConsoleReporter defines interface for console output
type ConsoleReporter interface {
	PrintSnapshot(snap risk.Snapshot)
	PrintJournal(j *Journal, n int)
	PrintSummary(s Summary)
}

// FileReporter defines interface for file output
type FileReporter interface {
	WriteJournalCSV(j *Journal, path string) error
	WriteJournalXLSX(j *Journal, path string) error
}

// PathManager defines interface for output path management
type PathManager interface {
	GetDefaultOutputDir(session string, day time.Time) string
	EnsureDirectoryExists(path string) error
}

// ExcelStyles holds Excel formatting styles
type ExcelStyles struct {
	HeaderStyle   int
	BaseStyle     int
	CurrencyStyle int
	AllowedStyle  int
	DeniedStyle   int
	WinStyle      int
	LossStyle     int
	SummaryStyle  int
}

var (
	_ ConsoleReporter = (*DefaultConsoleReporter)(nil)
	_ FileReporter    = (*fileReporter)(nil)
	_ PathManager     = (*DefaultPathManager)(nil)
)

type fileReporter struct {
	*DefaultCSVReporter
	*DefaultExcelReporter
}

// NewFileReporter returns a FileReporter writing CSV and Excel.
func NewFileReporter() FileReporter {
	return fileReporter{NewDefaultCSVReporter(), NewDefaultExcelReporter()}
}

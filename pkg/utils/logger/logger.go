// The package logger defines a simple logger with INFO, WARN and ERROR prints.
// A nil *Aggregate is valid and discards everything, so components can take
// an optional logger without nil checks at every call site.
package logger

import (
	"io"
	"log"
	"os"
)

type Aggregate struct {
	InfoLogger  *log.Logger
	WarnLogger  *log.Logger
	ErrorLogger *log.Logger
}

// New() returns an initialized Logger
func New(out io.Writer) *Aggregate {
	return &Aggregate{
		InfoLogger:  log.New(out, "INFO: ", log.LstdFlags),
		WarnLogger:  log.New(out, "WARN: ", log.LstdFlags),
		ErrorLogger: log.New(out, "ERROR: ", log.LstdFlags),
	}
}

// Info() prints an INFO log
func (l *Aggregate) Info(s string, v ...interface{}) {
	if l == nil {
		return
	}
	l.InfoLogger.Printf(s, v...)
}

// Warn() prints an WARN log
func (l *Aggregate) Warn(s string, v ...interface{}) {
	if l == nil {
		return
	}
	l.WarnLogger.Printf(s, v...)
}

// Error() prints an ERROR log
func (l *Aggregate) Error(s string, v ...interface{}) {
	if l == nil {
		return
	}
	l.ErrorLogger.Printf(s, v...)
}

// Init() initialise the logger and the file it prints to.
func Init(filePath string) (*Aggregate, *os.File, error) {
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return nil, nil, err
	}
	return New(file), file, nil
}

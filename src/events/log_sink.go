package events

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
)

// LogFileSuffix is appended to the node id to name its log file.
const LogFileSuffix = "_log.txt"

// LogFile returns the path of the log file of node id in dir.
func LogFile(dir, id string) string {
	return filepath.Join(dir, id+LogFileSuffix)
}

// fileWriter remembers the first write error so that it can be reported by
// the next Emit; logrus only prints hook errors to stderr.
type fileWriter struct {
	sync.Mutex
	f   *os.File
	err error
}

func (w *fileWriter) Write(p []byte) (int, error) {
	w.Lock()
	defer w.Unlock()
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.f.Write(p)
	if err != nil {
		w.err = err
	}
	return n, err
}

func (w *fileWriter) Err() error {
	w.Lock()
	defer w.Unlock()
	return w.err
}

// LogSink writes event lines to <dir>/<id>_log.txt and to a console writer.
// The file is appended to, never truncated.
type LogSink struct {
	logger *logrus.Logger
	file   *fileWriter
	path   string
}

// NewLogSink opens the log file of node id in dir, creating dir if needed.
// A nil console discards console output.
func NewLogSink(dir, id string, console io.Writer) (*LogSink, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
	}

	path := LogFile(dir, id)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	if console == nil {
		console = io.Discard
	}

	w := &fileWriter{f: f}

	logger := logrus.New()
	logger.Out = console
	logger.Level = logrus.InfoLevel
	logger.Formatter = &LineFormatter{}
	logger.Hooks.Add(lfshook.NewHook(
		lfshook.WriterMap{
			logrus.InfoLevel:  w,
			logrus.ErrorLevel: w,
		},
		&LineFormatter{},
	))

	return &LogSink{
		logger: logger,
		file:   w,
		path:   path,
	}, nil
}

// Path returns the location of the log file.
func (s *LogSink) Path() string {
	return s.path
}

// Started implements Emitter.
func (s *LogSink) Started(st Startup) error {
	s.logger.WithTime(st.Time).Info(FormatStartup(st))
	return s.file.Err()
}

// Emit implements Emitter.
func (s *LogSink) Emit(r Record) error {
	s.logger.WithTime(r.Time).Info(FormatRecord(r))
	return s.file.Err()
}

// Delivered implements Emitter. Failed sends are written at ERROR level.
func (s *LogSink) Delivered(d Delivery) error {
	entry := s.logger.WithTime(d.Time)
	if d.Failed() {
		entry.Error(FormatDelivery(d))
	} else {
		entry.Info(FormatDelivery(d))
	}
	return s.file.Err()
}

// Flush commits the log file to stable storage.
func (s *LogSink) Flush() error {
	if err := s.file.Err(); err != nil {
		return err
	}
	s.file.Lock()
	defer s.file.Unlock()
	return s.file.f.Sync()
}

// Close closes the log file.
func (s *LogSink) Close() error {
	s.file.Lock()
	defer s.file.Unlock()
	return s.file.f.Close()
}

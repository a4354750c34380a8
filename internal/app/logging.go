package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"maps"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/RyanBlaney/hls2mp4/configs"
	"github.com/RyanBlaney/hls2mp4/pkg/stream/common"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// consoleLevel is the minimum level printed on the terminal. Debug and info
// lines go to stdout, so they are held back while stdout carries a JSON or
// YAML report.
func consoleLevel(config *configs.Config) logging.Level {
	level := fileLevel(config)
	switch common.NormalizeToken(config.OutputFormat) {
	case "json", "yaml":
		if level < logging.WarnLevel {
			level = logging.WarnLevel
		}
	}
	return level
}

// fileLevel is the minimum level written to the log file
func fileLevel(config *configs.Config) logging.Level {
	if config.Verbose {
		return logging.DebugLevel
	}
	level, _ := configs.ParseLogLevel(config.LogLevel)
	return level
}

// setupLogging builds the console logger and, when log_file is set, tees it
// onto the log file. The returned closer releases the file.
func setupLogging(ctx *Context, config *configs.Config) (logging.Logger, io.Closer, error) {
	console := ctx.Logger
	if console == nil {
		defaultLogger := logging.NewDefaultLogger()
		defaultLogger.SetLevel(consoleLevel(config))
		console = defaultLogger
	}

	if config.LogFile == "" {
		return console, nil, nil
	}

	file, err := openLogFile(config.LogFile)
	if err != nil {
		return nil, nil, err
	}
	file.reopenOn(syscall.SIGHUP)

	sink := newWriterLogger(file, fileLevel(config))
	// file first so fatal lines land on disk before the console logger exits
	return teeLogger{sink, console}, file, nil
}

// writerLogger renders lines like the console logger onto any writer
type writerLogger struct {
	out    *log.Logger
	level  logging.Level
	fields logging.Fields
}

func newWriterLogger(w io.Writer, level logging.Level) *writerLogger {
	return &writerLogger{
		out:    log.New(w, "", log.LstdFlags),
		level:  level,
		fields: make(logging.Fields),
	}
}

func (w *writerLogger) log(level logging.Level, err error, msg string, fields ...logging.Fields) {
	if level < w.level {
		return
	}

	all := make(logging.Fields)
	maps.Copy(all, w.fields)
	for _, f := range fields {
		maps.Copy(all, f)
	}

	line := fmt.Sprintf("[%s] %s", level.String(), msg)
	if err != nil {
		line += fmt.Sprintf(": %v", err)
	}
	if len(all) > 0 {
		line += fmt.Sprintf(" %+v", all)
	}
	w.out.Println(line)
}

func (w *writerLogger) Debug(msg string, fields ...logging.Fields) {
	w.log(logging.DebugLevel, nil, msg, fields...)
}

func (w *writerLogger) Info(msg string, fields ...logging.Fields) {
	w.log(logging.InfoLevel, nil, msg, fields...)
}

func (w *writerLogger) Warn(msg string, fields ...logging.Fields) {
	w.log(logging.WarnLevel, nil, msg, fields...)
}

func (w *writerLogger) Error(err error, msg string, fields ...logging.Fields) {
	w.log(logging.ErrorLevel, err, msg, fields...)
}

func (w *writerLogger) Fatal(err error, msg string, fields ...logging.Fields) {
	w.log(logging.FatalLevel, err, msg, fields...)
}

func (w *writerLogger) WithFields(fields logging.Fields) logging.Logger {
	merged := make(logging.Fields)
	maps.Copy(merged, w.fields)
	maps.Copy(merged, fields)
	return &writerLogger{out: w.out, level: w.level, fields: merged}
}

func (w *writerLogger) WithContext(ctx context.Context) logging.Logger {
	if fields, ok := ctx.Value("logger_fields").(logging.Fields); ok {
		return w.WithFields(fields)
	}
	return w
}

func (w *writerLogger) SetLevel(level logging.Level) {
	w.level = level
}

// teeLogger sends every call to each of its loggers in order
type teeLogger []logging.Logger

func (t teeLogger) Debug(msg string, fields ...logging.Fields) {
	for _, l := range t {
		l.Debug(msg, fields...)
	}
}

func (t teeLogger) Info(msg string, fields ...logging.Fields) {
	for _, l := range t {
		l.Info(msg, fields...)
	}
}

func (t teeLogger) Warn(msg string, fields ...logging.Fields) {
	for _, l := range t {
		l.Warn(msg, fields...)
	}
}

func (t teeLogger) Error(err error, msg string, fields ...logging.Fields) {
	for _, l := range t {
		l.Error(err, msg, fields...)
	}
}

func (t teeLogger) Fatal(err error, msg string, fields ...logging.Fields) {
	for _, l := range t {
		l.Fatal(err, msg, fields...)
	}
}

func (t teeLogger) WithFields(fields logging.Fields) logging.Logger {
	out := make(teeLogger, len(t))
	for i, l := range t {
		out[i] = l.WithFields(fields)
	}
	return out
}

func (t teeLogger) WithContext(ctx context.Context) logging.Logger {
	out := make(teeLogger, len(t))
	for i, l := range t {
		out[i] = l.WithContext(ctx)
	}
	return out
}

func (t teeLogger) SetLevel(level logging.Level) {
	for _, l := range t {
		l.SetLevel(level)
	}
}

// logFile is an append-only log target that can be reopened after rotation
type logFile struct {
	mu   sync.Mutex
	path string
	file *os.File
	stop chan struct{}
}

func openLogFile(path string) (*logFile, error) {
	f := &logFile{path: path}
	if err := f.Reopen(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *logFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return 0, os.ErrClosed
	}
	return f.file.Write(p)
}

// Reopen closes the current handle and opens path again
func (f *logFile) Reopen() error {
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", f.path, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file != nil {
		f.file.Close()
	}
	f.file = file
	return nil
}

// reopenOn reopens the file every time sig arrives until Close
func (f *logFile) reopenOn(sig os.Signal) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, sig)
	f.stop = make(chan struct{})

	go func(stop chan struct{}) {
		defer signal.Stop(signals)
		for {
			select {
			case <-signals:
				if err := f.Reopen(); err != nil {
					logging.Error(err, "Failed reopening log file")
				}
			case <-stop:
				return
			}
		}
	}(f.stop)
}

func (f *logFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stop != nil {
		close(f.stop)
		f.stop = nil
	}
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

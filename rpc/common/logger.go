package common

import (
	"fmt"
	"github.com/lni/dragonboat/v4/logger"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// rfsLogger implements the ILogger interface with custom formatting
type rfsLogger struct {
	name   string
	level  atomic.Int32 // logger.LogLevel, changed while other goroutines log
	logger *log.Logger
}

func (l *rfsLogger) SetLevel(level logger.LogLevel) {
	l.level.Store(int32(level))
}

func (l *rfsLogger) enabled(level logger.LogLevel) bool {
	return logger.LogLevel(l.level.Load()) >= level
}

func (l *rfsLogger) Debugf(format string, args ...interface{}) {
	if l.enabled(logger.DEBUG) {
		l.log("DEBUG", format, args...)
	}
}

func (l *rfsLogger) Infof(format string, args ...interface{}) {
	if l.enabled(logger.INFO) {
		l.log("INFO", format, args...)
	}
}

func (l *rfsLogger) Warningf(format string, args ...interface{}) {
	if l.enabled(logger.WARNING) {
		l.log("WARN", format, args...)
	}
}

func (l *rfsLogger) Errorf(format string, args ...interface{}) {
	if l.enabled(logger.ERROR) {
		l.log("ERROR", format, args...)
	}
}

func (l *rfsLogger) Panicf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

func (l *rfsLogger) log(levelStr string, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("%-5s | %-15s | %s", levelStr, l.name, message)
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// workerEnv is set by the process pool in the environment of its workers
const workerEnv = "RFS_WORKER"

// CreateLogger implements dragonboats logger.Factory. Worker processes prefix their
// component name with the pid so interleaved output stays readable.
func CreateLogger(pkgName string) logger.ILogger {
	stdLogger := log.New(os.Stdout, "", log.Ldate|log.Ltime)

	name := pkgName
	if os.Getenv(workerEnv) != "" {
		name = fmt.Sprintf("%s[%d]", pkgName, os.Getpid())
	}

	l := &rfsLogger{
		name:   name,
		logger: stdLogger,
	}
	l.SetLevel(logger.INFO)
	return l
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info", "":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// loggerNames lists all components that log through dragonboats registry
var loggerNames = []string{
	"rpc",
	"transport/rpc",
	"store",
	"pool",
	"loadtest",
}

// installFactory guards logger.SetLoggerFactory, which panics when called twice
var installFactory sync.Once

// InitLoggers installs the custom logger factory (once per process) and sets the level
// of all loggers. It may be called any number of times, e.g. by every server started.
func InitLoggers(logLevel string) error {
	level, err := ParseLogLevel(logLevel)
	if err != nil {
		return err
	}

	installFactory.Do(func() {
		logger.SetLoggerFactory(CreateLogger)
	})

	for _, name := range loggerNames {
		logger.GetLogger(name).SetLevel(level)
	}
	return nil
}

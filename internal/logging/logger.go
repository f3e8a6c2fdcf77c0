package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает имя уровня без учёта регистра
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO", "":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("неизвестный уровень логирования %q", s)
	}
}

// Options настройки логгера
type Options struct {
	Dir          string    // каталог для файлов логов; пусто: без файла
	Console      io.Writer // вывод консоли; nil: os.Stdout
	ConsoleLevel LogLevel
	FileLevel    LogLevel
}

// Logger представляет логгер компонента с раздельными порогами для консоли и файла
type Logger struct {
	component       string
	consoleLogger   *log.Logger
	fileLogger      *log.Logger
	file            *os.File
	minConsoleLevel LogLevel
	minFileLevel    LogLevel
	mu              sync.RWMutex
}

// NewLogger создаёт логгер компонента
func NewLogger(component string, opts Options) (*Logger, error) {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	l := &Logger{
		component:       component,
		consoleLogger:   log.New(console, "", log.LstdFlags),
		minConsoleLevel: opts.ConsoleLevel,
		minFileLevel:    opts.FileLevel,
	}

	if opts.Dir == "" {
		return l, nil
	}

	// Создаем директорию для логов
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории %s: %w", opts.Dir, err)
	}

	// Создаем файл для логов с временной меткой
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join(opts.Dir, fmt.Sprintf("%s_%s.log", component, timestamp))

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания файла логов: %w", err)
	}
	l.file = file
	l.fileLogger = log.New(file, "", log.LstdFlags)
	return l, nil
}

// discardLogger логгер, который ничего не пишет (до инициализации)
func discardLogger(component string) *Logger {
	return &Logger{component: component, minConsoleLevel: ERROR + 1, minFileLevel: ERROR + 1}
}

// Close закрывает файл логов
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.fileLogger = nil
	return err
}

// SetLevels меняет пороги консоли и файла
func (l *Logger) SetLevels(console, file LogLevel) {
	l.mu.Lock()
	l.minConsoleLevel = console
	l.minFileLevel = file
	l.mu.Unlock()
}

// Enabled сообщает, будет ли сообщение уровня level куда-либо записано
func (l *Logger) Enabled(level LogLevel) bool {
	if l == nil {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return (l.consoleLogger != nil && level >= l.minConsoleLevel) ||
		(l.fileLogger != nil && level >= l.minFileLevel)
}

func (l *Logger) logf(level LogLevel, format string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}

	message := fmt.Sprintf("[%s] [%s] %s", level.String(), l.component, fmt.Sprintf(format, args...))

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.fileLogger != nil && level >= l.minFileLevel {
		l.fileLogger.Println(message)
	}
	if l.consoleLogger != nil && level >= l.minConsoleLevel {
		l.consoleLogger.Println(message)
	}
}

// Trace логирует сообщение уровня TRACE
func (l *Logger) Trace(format string, args ...interface{}) { l.logf(TRACE, format, args...) }

// Debug логирует сообщение уровня DEBUG
func (l *Logger) Debug(format string, args ...interface{}) { l.logf(DEBUG, format, args...) }

// Info логирует сообщение уровня INFO
func (l *Logger) Info(format string, args ...interface{}) { l.logf(INFO, format, args...) }

// Warn логирует сообщение уровня WARN
func (l *Logger) Warn(format string, args ...interface{}) { l.logf(WARN, format, args...) }

// Error логирует сообщение уровня ERROR
func (l *Logger) Error(format string, args ...interface{}) { l.logf(ERROR, format, args...) }

// Глобальный экземпляр логгера
var (
	defaultLogger   *Logger
	defaultLoggerMu sync.RWMutex
)

// InitDefaultLogger инициализирует глобальный логгер и настраивает менеджер компонентов
func InitDefaultLogger(component string, opts Options) error {
	logger, err := NewLogger(component, opts)
	if err != nil {
		return err
	}

	defaultLoggerMu.Lock()
	defaultLogger = logger
	defaultLoggerMu.Unlock()

	GetLoggerManager().Configure(opts)
	return nil
}

// CloseDefaultLogger закрывает глобальный логгер и все логгеры компонентов
func CloseDefaultLogger() {
	defaultLoggerMu.Lock()
	logger := defaultLogger
	defaultLogger = nil
	defaultLoggerMu.Unlock()

	if logger != nil {
		logger.Close()
	}
	GetLoggerManager().CloseAll()
}

func current() *Logger {
	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()
	return defaultLogger
}

// Trace логирует через глобальный логгер
func Trace(format string, args ...interface{}) { current().logf(TRACE, format, args...) }

// Debug логирует через глобальный логгер
func Debug(format string, args ...interface{}) { current().logf(DEBUG, format, args...) }

// Info логирует через глобальный логгер
func Info(format string, args ...interface{}) { current().logf(INFO, format, args...) }

// Warn логирует через глобальный логгер
func Warn(format string, args ...interface{}) { current().logf(WARN, format, args...) }

// Error логирует через глобальный логгер
func Error(format string, args ...interface{}) { current().logf(ERROR, format, args...) }

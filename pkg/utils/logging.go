package utils

import (
	"os"
	"sync"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.Mutex
	logger *zap.Logger
)

// LogOptions selects the level and an optional rotated log file. Console
// output goes to stderr; stdout belongs to command output.
type LogOptions struct {
	Level      string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
}

// Logger returns the process logger, building it from LOG_LEVEL and LOG_FILE
// on first use.
func Logger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger != nil {
		return logger
	}
	l, err := NewLogger(LogOptions{Level: os.Getenv("LOG_LEVEL"), File: os.Getenv("LOG_FILE"), MaxSize: 100})
	if err != nil {
		l, _ = zap.NewProduction()
	}
	logger = l
	return logger
}

func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

func NewLogger(o LogOptions) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if o.Level != "" {
		if err := lvl.UnmarshalText([]byte(o.Level)); err != nil {
			return nil, err
		}
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewJSONEncoder(encCfg)
	consoleCore := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), lvl)
	if o.File == "" {
		return zap.New(consoleCore), nil
	}
	fileCore := zapcore.NewCore(enc, zapcore.AddSync(&lumberjack.Logger{
		Filename:   o.File,
		MaxSize:    o.MaxSize,
		MaxBackups: o.MaxBackups,
		MaxAge:     o.MaxAge,
	}), lvl)
	return zap.New(zapcore.NewTee(fileCore, consoleCore)), nil
}

func AddLogFlags(flagSet *pflag.FlagSet) {
	flagSet.String("log-level", "info", "nível de log: debug|info|warn|error")
	flagSet.String("log-path", "", "arquivo de log (rotacionado)")
	flagSet.Int("log-max-size", 100, "tamanho máximo do arquivo de log em megabytes")
	flagSet.Int("log-max-age", 0, "dias para manter arquivos de log antigos")
	flagSet.Int("log-max-backups", 0, "quantidade de arquivos de log antigos mantidos")
}

// SetLoggerFromFlags replaces the process logger with one built from the flags
// added by AddLogFlags. Unset flags fall back to LOG_LEVEL and LOG_FILE.
func SetLoggerFromFlags(flagSet *pflag.FlagSet) error {
	o := LogOptions{Level: os.Getenv("LOG_LEVEL"), File: os.Getenv("LOG_FILE")}
	if flagSet.Changed("log-level") || o.Level == "" {
		o.Level, _ = flagSet.GetString("log-level")
	}
	if flagSet.Changed("log-path") {
		o.File, _ = flagSet.GetString("log-path")
	}
	o.MaxSize, _ = flagSet.GetInt("log-max-size")
	o.MaxAge, _ = flagSet.GetInt("log-max-age")
	o.MaxBackups, _ = flagSet.GetInt("log-max-backups")
	l, err := NewLogger(o)
	if err != nil {
		return err
	}
	SetLogger(l)
	return nil
}

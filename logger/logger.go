package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogFile is used when no log path is configured.
const DefaultLogFile = "smapi-profiles.log"

var (
	Log       = zap.NewNop().Sugar()
	ZapLogger = zap.NewNop() // Expose the raw zap Logger
)

// InitLogger points the package loggers at a console-encoded log file.
// An empty path means DefaultLogFile in the working directory.
func InitLogger(logPath string) error {
	if logPath == "" {
		logPath = DefaultLogFile
	}

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:          "T",
		LevelKey:         "L",
		NameKey:          "N",
		CallerKey:        "",
		FunctionKey:      zapcore.OmitKey,
		MessageKey:       "M",
		StacktraceKey:    "S",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeDuration:   zapcore.SecondsDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: "  ",
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return fmt.Errorf("can't create log directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("can't open log file: %w", err)
	}

	level := zap.InfoLevel
	if os.Getenv("SMAPI_PROFILES_DEBUG") != "" {
		level = zap.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(logFile),
		level,
	)

	ZapLogger = zap.New(core)
	Log = ZapLogger.Sugar()
	Log.Infow("Logger initialized", zap.String("path", logPath))
	return nil
}

// Or returns l, or the package logger when l is nil.
func Or(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l != nil {
		return l
	}
	return Log
}

func Sync() {
	if ZapLogger != nil {
		_ = ZapLogger.Sync() // flushes buffer, if any
	}
}

package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Verbosity levels accepted on the command line.
const (
	VerbosityInfo  = 1
	VerbosityDebug = 2
)

type Options struct {
	File      string              // log file, rotated by lumberjack
	Verbosity int                 // VerbosityInfo or VerbosityDebug
	Console   zapcore.WriteSyncer // optional human-readable copy, e.g. os.Stdout
}

// Level maps a verbosity flag onto a zap level.
func Level(verbosity int) zapcore.Level {
	if verbosity >= VerbosityDebug {
		return zap.DebugLevel
	}
	return zap.InfoLevel
}

func NewLogger(opts Options) (*zap.Logger, error) {
	if opts.File == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	if dir := filepath.Dir(opts.File); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	level := Level(opts.Verbosity)

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cores := []zapcore.Core{zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, level)}

	if opts.Console != nil {
		ccfg := zap.NewDevelopmentEncoderConfig()
		ccfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05,000")
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(ccfg), opts.Console, zap.InfoLevel))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

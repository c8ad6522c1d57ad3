package logger

import (
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level string
	// File enables a JSON log file, rotated by size, next to the console output.
	File string
}

func New(cfg Config) *zap.Logger {
	level := zapcore.DebugLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err != nil {
			level = zapcore.DebugLevel
		}
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)

	core := zapcore.NewCore(
		consoleEncoder,
		zapcore.AddSync(os.Stderr),
		level,
	)

	if cfg.File != "" {
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(fileCfg),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    100,
				MaxBackups: 5,
				MaxAge:     28,
				Compress:   true,
			}),
			level,
		)
		core = zapcore.NewTee(core, fileCore)
	}

	logger := zap.New(core, zap.AddCaller())

	zap.ReplaceGlobals(logger)
	log.SetOutput(zap.NewStdLog(logger).Writer())

	return logger
}

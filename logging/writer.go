package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// fileSyncer returns a rotating file writer for a single level, e.g. logs/error.log.
func fileSyncer(config Config, level zapcore.Level) zapcore.WriteSyncer {
	_ = os.MkdirAll(config.Director, 0o755)
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(config.Director, level.String()+".log"),
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
		LocalTime:  true,
	})
}

// buildCores tees a terminal core (all enabled levels) with one file core per level.
func buildCores(config Config) []zapcore.Core {
	enc := newEncoder(config)
	minLevel := config.ZapLevel()
	cores := make([]zapcore.Core, 0, 8)

	if config.LogInTerminal {
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(os.Stdout), minLevel))
	}

	if config.LogInFile {
		for level := minLevel; level <= zapcore.FatalLevel; level++ {
			exact := level
			enabler := zapcore.LevelEnabler(levelOnly(exact))
			cores = append(cores, zapcore.NewCore(enc.Clone(), fileSyncer(config, exact), enabler))
		}
	}

	return cores
}

type levelOnly zapcore.Level

func (l levelOnly) Enabled(level zapcore.Level) bool {
	return level == zapcore.Level(l)
}

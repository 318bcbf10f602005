// Package log writes diagnostics to a daily file under the config directory.
// Nothing is written unless logs.write is set.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	logrus "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/vidra-player/vidra/filesystem"
	"github.com/vidra-player/vidra/key"
	"github.com/vidra-player/vidra/where"
)

var enabled bool

// Setup opens today's log file and applies the configured format and level.
func Setup() error {
	enabled = viper.GetBool(key.LogsWrite)
	if !enabled {
		return nil
	}

	path := filepath.Join(where.Logs(), time.Now().Format("2006-01-02")+".log")
	f, err := filesystem.API().OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logrus.SetOutput(f)

	if viper.GetBool(key.LogsJson) {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	SetLevel(viper.GetString(key.LogsLevel))
	return nil
}

// SetLevel applies a textual severity, falling back to info for unknown names.
func SetLevel(lvl string) {
	parsed, err := logrus.ParseLevel(lvl)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)
}

// engineLevels maps mpv message levels. v, debug and trace all land on debug.
var engineLevels = map[string]logrus.Level{
	"fatal": logrus.ErrorLevel,
	"error": logrus.ErrorLevel,
	"warn":  logrus.WarnLevel,
	"info":  logrus.InfoLevel,
	"v":     logrus.DebugLevel,
	"debug": logrus.DebugLevel,
	"trace": logrus.DebugLevel,
}

// Engine forwards a log-message event emitted by an mpv instance.
func Engine(source, level, prefix, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	if lvl, ok := engineLevels[level]; ok {
		emitf(lvl, "[%s:%s] %s", source, prefix, text)
		return
	}
	emitf(logrus.DebugLevel, "[%s:%s (%s)] %s", source, prefix, level, text)
}

func emit(level logrus.Level, args ...any) {
	if enabled {
		logrus.StandardLogger().Log(level, args...)
	}
}

func emitf(level logrus.Level, format string, args ...any) {
	if enabled {
		logrus.StandardLogger().Logf(level, format, args...)
	}
}

func Error(args ...any)                 { emit(logrus.ErrorLevel, args...) }
func Errorf(format string, args ...any) { emitf(logrus.ErrorLevel, format, args...) }
func Warn(args ...any)                  { emit(logrus.WarnLevel, args...) }
func Warnf(format string, args ...any)  { emitf(logrus.WarnLevel, format, args...) }
func Info(args ...any)                  { emit(logrus.InfoLevel, args...) }
func Infof(format string, args ...any)  { emitf(logrus.InfoLevel, format, args...) }
func Debug(args ...any)                 { emit(logrus.DebugLevel, args...) }
func Debugf(format string, args ...any) { emitf(logrus.DebugLevel, format, args...) }

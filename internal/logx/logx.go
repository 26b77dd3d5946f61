package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger は標準エラーに出力するコンソール用のロガーを返す
func NewLogger() zerolog.Logger {
	return NewLoggerTo(os.Stderr, zerolog.InfoLevel)
}

// NewLoggerTo はwに指定レベルで出力するコンソール用のロガーを返す
func NewLoggerTo(w io.Writer, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		// 揃えるために24文字にパディング
		return fmt.Sprintf("%-24s", fmt.Sprintf("%s:%d", filepath.Base(file), line))
	}
	return zerolog.New(output).Level(level).With().Timestamp().Caller().Logger()
}

// ParseLevel はレベル名を解釈する。解釈できなければinfo
func ParseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

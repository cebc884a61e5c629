// Package writer 日志输出目标：控制台与轮转文件。
package writer

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Console 人类可读的控制台输出，out 为 nil 时写 stdout
func Console(out io.Writer) zerolog.ConsoleWriter {
	if out == nil {
		out = os.Stdout
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.DateTime,
		FormatLevel: func(i any) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
		},
	}
}

package desensitize

import "io"

// Writer 写出前对每条日志脱敏
type Writer struct {
	w    io.Writer
	hook *Hook
}

func NewWriter(w io.Writer, hook *Hook) *Writer {
	return &Writer{w: w, hook: hook}
}

// Write 成功时返回 len(p)，与改写后的长度无关
func (w *Writer) Write(p []byte) (int, error) {
	if w.hook == nil || w.hook.empty() {
		return w.w.Write(p)
	}

	line := string(p)
	out := w.hook.Desensitize(line)
	if out == line {
		return w.w.Write(p)
	}
	if _, err := io.WriteString(w.w, out); err != nil {
		return 0, err
	}
	return len(p), nil
}

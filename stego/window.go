package stego

import (
	"strconv"
)

// WindowState 有效期窗口状态
type WindowState int

const (
	// Pending now < Start
	Pending WindowState = iota
	// Active Start <= now <= End
	Active
	// Expired now > End
	Expired
)

func (s WindowState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Active:
		return "active"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Window 解密有效期，单位为 Unix 秒，两端都包含
type Window struct {
	Start int64
	End   int64
}

// Validate 编码前校验窗口
func (w Window) Validate() error {
	if w.Start > w.End {
		return ErrInvalidWindow.WithMetadata(map[string]string{
			"start_timestamp": strconv.FormatInt(w.Start, 10),
			"end_timestamp":   strconv.FormatInt(w.End, 10),
		})
	}
	return nil
}

// State 返回 now 时刻的状态
func (w Window) State(now int64) WindowState {
	switch {
	case now < w.Start:
		return Pending
	case now > w.End:
		return Expired
	default:
		return Active
	}
}

// Check 仅 Active 通过，否则返回 ErrSessionExpired
func (w Window) Check(now int64) error {
	if state := w.State(now); state != Active {
		return ErrSessionExpired.WithMetadata(map[string]string{"state": state.String()})
	}
	return nil
}

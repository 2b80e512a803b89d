package internal

import (
	"fmt"
	"unicode"

	"go.uber.org/zap"
)

// ControlSender writes raw control bytes to the terminal, bypassing command execution.
type ControlSender struct {
	session Session
	log     *zap.Logger
	metrics *Metrics
}

func NewControlSender(session Session, log *zap.Logger, metrics *Metrics) *ControlSender {
	return &ControlSender{session: session, log: orNop(log).Named("control"), metrics: metrics}
}

// ControlByte maps a letter to its ASCII control code: 'C' and 'c' both give 0x03.
func ControlByte(letter rune) (byte, error) {
	upper := unicode.ToUpper(letter)
	if upper < 'A' || upper > 'Z' {
		return 0, fmt.Errorf("%q is not an ASCII letter", letter)
	}
	return byte(upper) - 64, nil
}

// Send writes Control-<letter>. It does not wait for or read any output.
func (c *ControlSender) Send(letter string) error {
	r := []rune(letter)
	if len(r) != 1 {
		return &ExecutionError{Op: ToolSendControlCharacter, Input: letter, Err: ErrInvalidInput}
	}
	b, err := ControlByte(r[0])
	if err != nil {
		return &ExecutionError{Op: ToolSendControlCharacter, Input: letter, Err: err}
	}

	if _, err := c.session.Write([]byte{b}); err != nil {
		c.log.Error("control write failed", zap.String("letter", letter), zap.Error(err))
		return &ExecutionError{Op: ToolSendControlCharacter, Input: letter, Err: err}
	}

	c.log.Info("control character sent", zap.String("letter", letter))
	c.metrics.RecordControl(string(unicode.ToUpper(r[0])))
	return nil
}

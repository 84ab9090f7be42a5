package cli

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

type ErrorHandler struct {
	Verbose bool
}

// PrintErr logs `err`, numbering each error when several were joined together.
func (h ErrorHandler) PrintErr(log *zap.Logger, err error) {
	h.printErr(log, err, 0)
}

func (h ErrorHandler) printErr(log *zap.Logger, err error, num int) int {
	errFmt := "%v"
	if h.Verbose {
		errFmt = "%+v"
	}

	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		errs := joined.Unwrap()
		if len(errs) > 1 {
			if msg := prefix(err, joined); msg != "" {
				log.Error(msg)
			}
			log.Sugar().Errorf("%d errors:", len(errs))
			for _, e := range errs {
				num = h.printErr(log, e, num)
			}
			return num
		}
	}

	num++
	log.Error(fmt.Sprintf("[err %d] "+errFmt, num, err))
	return num
}

// prefix is the context wrapped around a joined error, eg `invalid configuration` for
// `invalid configuration: missing a\nmissing b`.
func prefix(err error, joined interface{ Unwrap() []error }) string {
	full, inner := err.Error(), joined.(error).Error()
	if len(full) > len(inner)+2 && full[len(full)-len(inner):] == inner {
		return full[:len(full)-len(inner)-2]
	}
	return ""
}

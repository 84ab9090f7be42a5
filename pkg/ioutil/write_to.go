package ioutil

import (
	"errors"
	"fmt"
	"io"
)

// WriteToHelper wraps a Writer along with the count and err that [io.WriterTo] returns. Writes are delegated
// until the first error, after which they are ignored.
//
//	func (wt *MyWriterTo) WriteTo(w io.Writer) (count int64, err error) {
//		wh := ioutil.NewWriteToHelper(w, &count, &err)
//		wh.Write("hello")
//		wh.Writef(" %s\n", "world")
//		return
//	}
type WriteToHelper struct {
	out   io.Writer
	count *int64
	err   *error
}

func NewWriteToHelper(out io.Writer, count *int64, err *error) WriteToHelper {
	return WriteToHelper{
		out:   out,
		count: count,
		err:   err,
	}
}

// AddErr joins `err` with any earlier error. Later writes are skipped.
func (w WriteToHelper) AddErr(err error) {
	*w.err = errors.Join(*w.err, err)
}

func (w WriteToHelper) Write(s string) {
	w.Writef(`%s`, s)
}

func (w WriteToHelper) Writef(format string, a ...any) {
	if *w.err != nil {
		return
	}

	count, err := fmt.Fprintf(w.out, format, a...)
	*w.count += int64(count)
	*w.err = err
}

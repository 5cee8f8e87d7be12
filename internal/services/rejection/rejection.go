// Package rejection carries constraint violations that should be shown to
// the requesting user verbatim, as opposed to system faults that get logged
// and replaced with a generic reply.
package rejection

import (
	"errors"
	"fmt"
)

type Rejection struct {
	Message string
}

func (r *Rejection) Error() string {
	return r.Message
}

func New(message string) *Rejection {
	return &Rejection{Message: message}
}

func Newf(format string, args ...interface{}) *Rejection {
	return &Rejection{Message: fmt.Sprintf(format, args...)}
}

// Message extracts the user-visible text if err is a rejection.
func Message(err error) (string, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej.Message, true
	}
	return "", false
}

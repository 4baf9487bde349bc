// Package log provides a small structured-logging helper shared across the
// module's packages, grounded on the teacher's crypto.LoggerHelper but
// generalized so any package can name itself instead of being hardcoded to
// one.
package log

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// Helper attaches a package name and a growing set of structured fields to
// every log line it emits, so a single grep on "package":"wire" or
// "function":"DecodeDelta" finds every line from that call.
type Helper struct {
	pkg    string
	fields logrus.Fields
	logger *logrus.Logger
}

// New returns a Helper scoped to pkg and function, logging through logger.
// A nil logger uses logrus.StandardLogger().
func New(logger *logrus.Logger, pkg, function string) *Helper {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Helper{
		pkg:    pkg,
		logger: logger,
		fields: logrus.Fields{
			"package":  pkg,
			"function": function,
		},
	}
}

// WithCaller records the file:line and function name of WithCaller's own
// caller, for log lines where "where did this fire from" matters more than
// usual.
func (h *Helper) WithCaller() *Helper {
	if pc, file, line, ok := runtime.Caller(1); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			name := fn.Name()
			if i := strings.LastIndex(name, "/"); i >= 0 {
				name = name[i+1:]
			}
			h.fields["caller"] = fmt.Sprintf("%s:%d", file, line)
			h.fields["caller_func"] = name
		}
	}
	return h
}

// WithField returns a Helper with key added to its field set.
func (h *Helper) WithField(key string, value interface{}) *Helper {
	h.fields[key] = value
	return h
}

// WithFields returns a Helper with every entry of fields merged in.
func (h *Helper) WithFields(fields logrus.Fields) *Helper {
	for k, v := range fields {
		h.fields[k] = v
	}
	return h
}

// WithError attaches err along with a caller-supplied classification, the
// pairing the dispatcher and connection driver use to distinguish a
// malformed frame from a dropped connection in the same log stream.
func (h *Helper) WithError(err error, errorType, operation string) *Helper {
	h.fields["error"] = err.Error()
	h.fields["error_type"] = errorType
	h.fields["operation"] = operation
	return h
}

func (h *Helper) Debug(message string) { h.logger.WithFields(h.fields).Debug(message) }
func (h *Helper) Info(message string)  { h.logger.WithFields(h.fields).Info(message) }
func (h *Helper) Warn(message string)  { h.logger.WithFields(h.fields).Warn(message) }
func (h *Helper) Error(message string) { h.logger.WithFields(h.fields).Error(message) }

// BodyPreview renders a short hex preview of a packet body for debug
// logging without dumping the whole payload.
func BodyPreview(data []byte) logrus.Fields {
	n := len(data)
	previewLen := n
	if previewLen > 16 {
		previewLen = 16
	}
	preview := fmt.Sprintf("%x", data[:previewLen])
	if n > previewLen {
		preview += "..."
	}
	return logrus.Fields{
		"body_preview": preview,
		"body_size":    n,
	}
}

package log

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

func TestNew_SetsPackageAndFunctionFields(t *testing.T) {
	logger, hook := newTestLogger()
	h := New(logger, "wire", "DecodeDelta")
	h.Info("hello")

	require.Len(t, hook.Entries, 1)
	entry := hook.Entries[0]
	assert.Equal(t, "hello", entry.Message)
	assert.Equal(t, "wire", entry.Data["package"])
	assert.Equal(t, "DecodeDelta", entry.Data["function"])
}

func TestNew_NilLoggerFallsBackToStandardLogger(t *testing.T) {
	h := New(nil, "transport", "Dispatch")
	assert.NotNil(t, h)
}

func TestWithField_AddsASingleField(t *testing.T) {
	logger, hook := newTestLogger()
	h := New(logger, "wire", "Encode")
	h.WithField("packet_type", 25).Debug("encoded")

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, 25, hook.LastEntry().Data["packet_type"])
}

func TestWithFields_MergesEveryEntry(t *testing.T) {
	logger, hook := newTestLogger()
	h := New(logger, "wire", "Encode")
	h.WithFields(logrus.Fields{"a": 1, "b": "two"}).Warn("merged")

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, 1, entry.Data["a"])
	assert.Equal(t, "two", entry.Data["b"])
}

func TestWithError_AttachesErrorTypeAndOperation(t *testing.T) {
	logger, hook := newTestLogger()
	h := New(logger, "transport", "ReadPacket")
	h.WithError(errors.New("short read"), "malformed_frame", "decode").Error("frame rejected")

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "short read", entry.Data["error"])
	assert.Equal(t, "malformed_frame", entry.Data["error_type"])
	assert.Equal(t, "decode", entry.Data["operation"])
}

func TestWithCaller_RecordsCallerFuncName(t *testing.T) {
	logger, hook := newTestLogger()
	h := New(logger, "transport", "Dispatch")
	h.WithCaller().Error("panic recovered")

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Contains(t, entry.Data, "caller")
	assert.Contains(t, entry.Data, "caller_func")
	assert.Contains(t, entry.Data["caller_func"], "TestWithCaller_RecordsCallerFuncName")
}

func TestHelper_ChainingIsCumulative(t *testing.T) {
	logger, hook := newTestLogger()
	h := New(logger, "wire", "DecodeDelta")
	h.WithField("packet_type", 29).WithField("key", "1").Info("decoded")

	entry := hook.LastEntry()
	assert.Equal(t, 29, entry.Data["packet_type"])
	assert.Equal(t, "1", entry.Data["key"])
	assert.Equal(t, "wire", entry.Data["package"])
}

func TestDebugInfoWarnError_UseDistinctLevels(t *testing.T) {
	logger, hook := newTestLogger()
	h := New(logger, "wire", "Scan")

	h.Debug("d")
	h.Info("i")
	h.Warn("w")
	h.Error("e")

	require.Len(t, hook.Entries, 4)
	assert.Equal(t, logrus.DebugLevel, hook.Entries[0].Level)
	assert.Equal(t, logrus.InfoLevel, hook.Entries[1].Level)
	assert.Equal(t, logrus.WarnLevel, hook.Entries[2].Level)
	assert.Equal(t, logrus.ErrorLevel, hook.Entries[3].Level)
}

func TestBodyPreview_ShortBodyIsNotTruncated(t *testing.T) {
	fields := BodyPreview([]byte{0x01, 0x02, 0x03})
	assert.Equal(t, "010203", fields["body_preview"])
	assert.Equal(t, 3, fields["body_size"])
}

func TestBodyPreview_LongBodyIsTruncatedWithEllipsis(t *testing.T) {
	data := make([]byte, 32)
	for i := range data {
		data[i] = byte(i)
	}
	fields := BodyPreview(data)
	assert.Equal(t, 32, fields["body_size"])
	preview, ok := fields["body_preview"].(string)
	require.True(t, ok)
	assert.Contains(t, preview, "...")
	assert.Len(t, preview, len("000102030405060708090a0b0c0d0e0f")+len("..."))
}

func TestBodyPreview_EmptyBody(t *testing.T) {
	fields := BodyPreview(nil)
	assert.Equal(t, "", fields["body_preview"])
	assert.Equal(t, 0, fields["body_size"])
}

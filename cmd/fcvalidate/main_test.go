package main

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePacketFile(t *testing.T, dir, name string, claimedLength, packetType int, extra []byte) string {
	t.Helper()
	var buf []byte
	lengthBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(lengthBytes, uint16(claimedLength))
	buf = append(buf, lengthBytes...)
	typeBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(typeBytes, uint16(packetType))
	buf = append(buf, typeBytes...)
	buf = append(buf, extra...)

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

func TestValidateFile_ValidFrameMatchesClaimedLength(t *testing.T) {
	dir := t.TempDir()
	path := writePacketFile(t, dir, "inbound_1.packet", 6, 25, []byte{0x01, 0x02})

	r, err := validateFile(path)
	require.NoError(t, err)
	assert.True(t, r.valid())
	assert.Equal(t, 25, r.packetType)
	assert.Equal(t, 6, r.claimedSize)
	assert.Equal(t, 6, r.actualSize)
}

func TestValidateFile_TruncatedFrameIsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := writePacketFile(t, dir, "inbound_2.packet", 10, 25, []byte{0x01})

	r, err := validateFile(path)
	require.NoError(t, err)
	assert.False(t, r.valid())
	assert.Equal(t, 10, r.claimedSize)
	assert.Equal(t, 6, r.actualSize)
}

func TestValidateFile_TooShortForAPacketTypeStillReportsSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.packet")
	require.NoError(t, os.WriteFile(path, []byte{0x00}, 0o644))

	r, err := validateFile(path)
	require.NoError(t, err)
	assert.Equal(t, -1, r.packetType)
	assert.Equal(t, 1, r.actualSize)
}

func TestValidateFile_MissingFileErrors(t *testing.T) {
	_, err := validateFile(filepath.Join(t.TempDir(), "nonexistent.packet"))
	assert.Error(t, err)
}

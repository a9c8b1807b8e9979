package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteBufferWrite(t *testing.T) {
	var bb ByteBuffer

	bb.WriteByte('a')
	bb.Write([]byte("bc"))

	assert.Equal(t, []byte("abc"), bb.Bytes())
	assert.Equal(t, 3, bb.Len())
}

func TestByteBufferReset(t *testing.T) {
	var bb ByteBuffer
	bb.Write([]byte("some data"))
	originalCap := cap(bb.B)

	bb.Reset()

	assert.Equal(t, 0, bb.Len(), "Reset should clear the buffer length")
	assert.Equal(t, originalCap, cap(bb.B), "Reset should preserve capacity")
}

func TestByteBufferClone(t *testing.T) {
	var bb ByteBuffer
	bb.Write([]byte("payload"))

	clone := bb.Clone()
	require.Equal(t, []byte("payload"), clone)

	// The clone must not alias the buffer's storage.
	bb.Reset()
	bb.Write([]byte("XXXXXXX"))
	assert.Equal(t, []byte("payload"), clone)

	var empty ByteBuffer
	assert.Nil(t, empty.Clone(), "empty buffer clones to nil")
}

func TestStreamBufferPool(t *testing.T) {
	bb := GetStreamBuffer()
	require.NotNil(t, bb)
	assert.Equal(t, 0, bb.Len(), "pooled buffer starts empty")

	bb.Write([]byte("stale content"))
	PutStreamBuffer(bb)

	again := GetStreamBuffer()
	assert.Equal(t, 0, again.Len(), "reused buffer is reset on Get")
	PutStreamBuffer(again)

	// Oversized buffers are dropped, nil is tolerated.
	PutStreamBuffer(&ByteBuffer{B: make([]byte, 0, streamBufferMaxThreshold+1)})
	PutStreamBuffer(nil)
}

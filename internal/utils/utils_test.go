package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	sse := NewSSEWriter(rec)

	require.NoError(t, sse.Write("frame", `{"seq":1}`))
	require.NoError(t, sse.Write("", "a\nb"))
	require.NoError(t, sse.Close())

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.True(t, rec.Flushed)
	assert.Equal(t,
		"event: frame\ndata: {\"seq\":1}\n\n"+
			"data: a\ndata: b\n\n"+
			"data: [DONE]\n\n",
		rec.Body.String())
}

func TestNewHTTPClient(t *testing.T) {
	c := NewHTTPClient(5 * time.Second)
	assert.Equal(t, 5*time.Second, c.Timeout)

	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	assert.NotNil(t, tr.Proxy)
	assert.NotNil(t, tr.TLSClientConfig)
}

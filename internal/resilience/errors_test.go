package resilience

import (
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"tagged transient", NewTransientError(eris.New("503 from upstream"), 503), true},
		{"wrapped transient", eris.Wrap(NewTransientError(eris.New("503"), 503), "lookup"), true},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"reset message heuristic", eris.New("read tcp: connection reset by peer"), true},
		{"dns message heuristic", eris.New("dial tcp: no such host"), true},
		{"io timeout message", eris.New("read tcp 10.0.0.1:443: i/o timeout"), true},
		{"plain error", eris.New("invalid request"), false},
		{"auth failure", eris.New("unexpected status 401: bad key"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 201, 301, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}

func TestTransientErrorUnwrap(t *testing.T) {
	inner := eris.New("boom")
	te := NewTransientError(inner, 500)
	assert.Equal(t, inner.Error(), te.Error())
	assert.ErrorIs(t, te, inner)
	assert.Equal(t, 500, te.StatusCode)
}

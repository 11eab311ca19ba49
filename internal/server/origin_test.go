package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func requestWithOrigin(origin string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func TestCheckOrigin_AllowsEmptyOrigin(t *testing.T) {
	check := NewCheckOrigin("https://forge.example.com", false)
	assert.True(t, check(requestWithOrigin("")))
}

func TestCheckOrigin_AllowsAppOrigin(t *testing.T) {
	check := NewCheckOrigin("https://forge.example.com/some/path", false)
	assert.True(t, check(requestWithOrigin("https://forge.example.com")))
}

func TestCheckOrigin_RejectsForeignOrigin(t *testing.T) {
	check := NewCheckOrigin("https://forge.example.com", false)
	assert.False(t, check(requestWithOrigin("https://evil.example.com")))
}

func TestCheckOrigin_LocalhostOnlyInDevelopment(t *testing.T) {
	dev := NewCheckOrigin("https://forge.example.com", true)
	prod := NewCheckOrigin("https://forge.example.com", false)

	assert.True(t, dev(requestWithOrigin("http://localhost:3000")))
	assert.True(t, dev(requestWithOrigin("http://127.0.0.1:3000")))
	assert.False(t, prod(requestWithOrigin("http://localhost:3000")))
}

func TestCheckOrigin_InvalidAppURL(t *testing.T) {
	check := NewCheckOrigin("::not-a-url::", false)
	assert.True(t, check(requestWithOrigin("")))
	assert.False(t, check(requestWithOrigin("https://anything.example.com")))
}

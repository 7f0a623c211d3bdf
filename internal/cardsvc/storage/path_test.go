package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectPath(t *testing.T) {
	at := time.UnixMilli(1723456789012)

	assert.Equal(t, "user-1/card-9/1723456789012-0.jpg", ObjectPath("user-1", "card-9", at, 0, "jpg"))
	assert.Equal(t, "user-1/card-9/1723456789012-2.png", ObjectPath("user-1", "card-9", at, 2, ".PNG"))
	assert.Equal(t, "u/c/1723456789012-1.jpg", ObjectPath("u", "c", at, 1, ""))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "png", Extension("front.PNG", "image/jpeg"))
	assert.Equal(t, "jpg", Extension("blob", "image/jpeg"))
	assert.Equal(t, "webp", Extension("", "image/webp"))
	assert.Equal(t, "jpg", Extension("", "application/octet-stream"))
	assert.Equal(t, "jpg", Extension("", ""))
}

func TestPublicURLIsDeterministic(t *testing.T) {
	p := "user 1/card/1-0.jpg"
	want := "https://cards.example.com/v1/images/user%201/card/1-0.jpg"

	assert.Equal(t, want, PublicURL("https://cards.example.com/", p))
	assert.Equal(t, PublicURL("https://cards.example.com", p), PublicURL("https://cards.example.com", p))
}

func TestCleanPath(t *testing.T) {
	p, err := CleanPath("/u/c/1-0.jpg")
	require.NoError(t, err)
	assert.Equal(t, "u/c/1-0.jpg", p)

	for _, bad := range []string{"", "/", "u/../../etc/passwd", `u\c`} {
		_, err := CleanPath(bad)
		assert.Error(t, err, bad)
	}
}

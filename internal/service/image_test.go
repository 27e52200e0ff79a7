package service_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataURI(t *testing.T) {
	data, contentType, err := service.DecodeDataURI("data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, []byte("hello"), data)

	for _, bad := range []string{
		"aGVsbG8=",
		"data:image/png,aGVsbG8=",
		"data:image/svg+xml;base64,aGVsbG8=",
		"data:image/jpeg;base64,",
		"data:image/jpeg;base64,!!!",
	} {
		_, _, err := service.DecodeDataURI(bad)
		assert.ErrorIs(t, err, service.ErrInvalidImage, bad)
	}
}

func TestLocalImageStore(t *testing.T) {
	root := t.TempDir()
	store := service.NewLocalImageStore(root, "/media", logger.Nop())
	ctx := context.Background()

	ref, err := store.Save(ctx, []byte("jpeg bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "/media/recipes/images/"))
	assert.True(t, strings.HasSuffix(ref, ".jpg"))

	path := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(ref, "/media/")))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(content))

	require.NoError(t, store.Delete(ctx, ref))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, ref), "deleting twice is harmless")
	assert.NoError(t, store.Delete(ctx, "https://elsewhere/x.png"), "foreign references are ignored")
}

func TestTextSanitizer(t *testing.T) {
	s := service.NewTextSanitizer()

	assert.Equal(t, "Суп", s.Sanitize("  <em>Суп</em> "))
	assert.Equal(t, "соль & перец", s.Sanitize("соль &amp; перец"))
	assert.Equal(t, "", s.Sanitize("<script>alert('x')</script>"))
}

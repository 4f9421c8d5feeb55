package storage

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-market/internal/status"
)

func uploadHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("banner", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["banner"][0]
}

func TestLocalBannerStore_SaveAndOpen(t *testing.T) {
	store, err := NewLocalBannerStore(t.TempDir())
	require.NoError(t, err)

	ref, err := store.Save(uploadHeader(t, "poster.png", []byte("image-bytes")))
	require.NoError(t, err)
	assert.NotEqual(t, "poster.png", ref, "refs are opaque, never the original name")

	rc, err := store.Open(ref)
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), content)
}

func TestLocalBannerStore_RejectsUnsupportedFormat(t *testing.T) {
	store, err := NewLocalBannerStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save(uploadHeader(t, "script.sh", []byte("#!/bin/sh")))
	require.Error(t, err)
	assert.Equal(t, status.KindValidation, status.KindOf(err))
}

func TestLocalBannerStore_OpenSanitizesRef(t *testing.T) {
	store, err := NewLocalBannerStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open("../../etc/passwd")
	require.Error(t, err)
	assert.Equal(t, status.KindNotFound, status.KindOf(err))
}

package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadedPair_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(UploadedPair{ImageURL: "https://cdn.test/a.png", Text: "caption", SourceURL: "https://site.test/"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"image_url":"https://cdn.test/a.png","text":"caption","source_url":"https://site.test/"}`, string(data))
}

func TestCleanedPair_JSONFieldOrder(t *testing.T) {
	data, err := json.Marshal(CleanedPair{Text: "a cat", ImageURL: "https://cdn.test/a.png"})
	require.NoError(t, err)
	assert.Equal(t, `{"text":"a cat","image_url":"https://cdn.test/a.png"}`, string(data))
}

func TestUploadDBEntry_OmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(UploadDBEntry{Status: UploadStatusRejected, ErrorType: "Image_TooSmall"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "public_url")
	assert.Contains(t, string(data), `"status":"rejected"`)
}

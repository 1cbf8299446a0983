package pagination_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfinbooks/bookkeeper_app/internal/utils/pagination"
)

func TestTokenRoundTrip(t *testing.T) {
	txnDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	createdAt := time.Date(2024, 3, 15, 10, 30, 45, 123456789, time.UTC)

	token := pagination.EncodeToken(txnDate, createdAt)
	gotDate, gotCreated, err := pagination.DecodeToken(token)

	require.NoError(t, err)
	assert.True(t, gotDate.Equal(txnDate))
	assert.True(t, gotCreated.Equal(createdAt))
}

func TestDecodeToken_Invalid(t *testing.T) {
	t.Run("not base64", func(t *testing.T) {
		_, _, err := pagination.DecodeToken("not-a-token!!!")
		assert.Error(t, err)
	})

	t.Run("missing separator", func(t *testing.T) {
		token := base64.StdEncoding.EncodeToString([]byte("2024-03-15T00:00:00Z"))
		_, _, err := pagination.DecodeToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage timestamps", func(t *testing.T) {
		token := base64.StdEncoding.EncodeToString([]byte("yesterday|tomorrow"))
		_, _, err := pagination.DecodeToken(token)
		assert.Error(t, err)
	})
}

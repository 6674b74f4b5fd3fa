package client

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownClientError_Error(t *testing.T) {
	err := &UnknownClientError{
		Type:      "fake_db",
		Available: []string{"duckdb", "postgres"},
	}

	msg := err.Error()
	assert.Contains(t, msg, "fake_db", "error should mention the unknown type")
	assert.Contains(t, msg, "duckdb", "error should list available clients")
	assert.Contains(t, msg, "supacatalog.yaml", "error should mention config file")
}

func TestRegister(t *testing.T) {
	Register("Test_Client_Internal", func(_ *slog.Logger) SQLClient { return nil })

	assert.True(t, IsRegistered("test_client_internal"), "names are case-insensitive")

	factory, ok := Get("TEST_CLIENT_INTERNAL")
	assert.True(t, ok)
	assert.NotNil(t, factory)
	assert.Contains(t, ListClients(), "test_client_internal")
}

func TestNew_EmptyType(t *testing.T) {
	_, err := New("", nil)
	require.Error(t, err)
	assert.Equal(t, "source type not specified", err.Error())
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New("oracle_not_registered", nil)
	require.Error(t, err)

	var unknown *UnknownClientError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "oracle_not_registered", unknown.Type)
}

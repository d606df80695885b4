package client

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCredentialsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".riskctl", CredentialsFile)

	saved := &Credentials{AccessToken: "tok-abc", TokenType: "bearer", TenantId: "acme"}
	require.NoError(t, SaveCredentials(path, saved))

	loaded, err := LoadCredentials(path)
	require.NoError(t, err)
	require.Equal(t, saved, loaded)
}

func TestLoadCredentialsMissingFile(t *testing.T) {
	loaded, err := LoadCredentials(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	require.Empty(t, loaded.AccessToken)
}

func TestRemoveCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), CredentialsFile)
	require.NoError(t, SaveCredentials(path, &Credentials{AccessToken: "tok"}))

	require.NoError(t, RemoveCredentials(path))

	loaded, err := LoadCredentials(path)
	require.NoError(t, err)
	require.Empty(t, loaded.AccessToken)

	// removing an already-removed file is not an error
	require.NoError(t, RemoveCredentials(path))
}

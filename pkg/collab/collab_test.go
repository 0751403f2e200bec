package collab

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akramer/linechat/pkg/crypto"
)

func TestStaticAuthenticatorPlaintext(t *testing.T) {
	auth, err := NewStaticAuthenticator([]UserYAML{
		{Username: "user1", Password: "password1"},
		{Username: "user2", Password: "password2"},
	})
	require.NoError(t, err)

	require.True(t, auth.Verify("user1", "password1"))
	require.False(t, auth.Verify("user1", "password2"))
	require.False(t, auth.Verify("ghost", "password1"))
}

func TestStaticAuthenticatorHashed(t *testing.T) {
	salt, err := crypto.GenerateSalt()
	require.NoError(t, err)
	hash := crypto.HashPassword("s3cret", salt)

	auth, err := NewStaticAuthenticator([]UserYAML{{
		Username:     "admin",
		PasswordHash: base64.StdEncoding.EncodeToString(hash),
		Salt:         base64.StdEncoding.EncodeToString(salt),
	}})
	require.NoError(t, err)

	require.True(t, auth.Verify("admin", "s3cret"))
	require.False(t, auth.Verify("admin", "wrong"))
}

func TestStaticAuthenticatorRejectsBadEntries(t *testing.T) {
	_, err := NewStaticAuthenticator([]UserYAML{{Username: "nopass"}})
	require.Error(t, err)

	_, err = NewStaticAuthenticator([]UserYAML{
		{Username: "dup", Password: "a"},
		{Username: "dup", Password: "b"},
	})
	require.Error(t, err)
}

func TestLoadAuthenticator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.yaml")
	require.NoError(t, os.WriteFile(path, []byte("users:\n  - username: user1\n    password: password1\n"), 0600))

	auth, err := LoadAuthenticator(path)
	require.NoError(t, err)
	require.True(t, auth.Verify("user1", "password1"))
}

func TestHTTPTranslator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		_, _ = w.Write([]byte(`{"translated_text": "bonjour"}`))
	}))
	defer srv.Close()

	tr := NewHTTPTranslator(srv.URL)
	got, err := tr.Translate(context.Background(), "hello", "fr")
	require.NoError(t, err)
	require.Equal(t, "bonjour", got)
}

func TestHTTPTranslatorEndpointFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tr := NewHTTPTranslator(srv.URL)
	_, err := tr.Translate(context.Background(), "hello", "fr")
	require.Error(t, err)
}

func TestPatternKeywordDetector(t *testing.T) {
	d := NewPatternKeywordDetector(nil)

	require.Equal(t, "stop", d.Detect([]byte("....stop....")))
	require.Equal(t, "", d.Detect([]byte{0x01, 0x02, 0x03}))
}

func TestFileHistorySink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.txt")
	sink, err := NewFileHistorySink(path)
	require.NoError(t, err)
	defer func() { _ = sink.Close() }()

	require.NoError(t, sink.Append("line one"))
	require.NoError(t, sink.Append("line two"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "line one\nline two\n", string(data))
}

func TestDirObjectStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDirObjectStore(dir)
	require.NoError(t, err)

	key := AudioObjectKey("alice")
	require.True(t, strings.HasPrefix(key, "alice_"))

	require.NoError(t, store.Put(key, []byte{0xDE, 0xAD}))
	data, err := os.ReadFile(filepath.Join(dir, key))
	require.NoError(t, err)
	require.Equal(t, []byte{0xDE, 0xAD}, data)

	require.Error(t, store.Put("../escape", []byte("x")))
}

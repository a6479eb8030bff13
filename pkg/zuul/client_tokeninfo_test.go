package zuul

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchResourceOwner(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodGet, r.Method)
			require.Equal(t, TokenInfoPath, r.URL.Path)
			require.Equal(t, "at1", r.URL.Query().Get("token"))
			_, _ = w.Write([]byte(`{"client_id":"test-client","user_id":"alice","scope":["urn:zuul:oauth:oaas:tokeninfo"],"exp":3600}`))
		})

		owner, err := client.FetchResourceOwner(context.Background(), "at1")
		require.NoError(t, err)
		require.Equal(t, "alice", owner.UserID)
		require.Equal(t, []string{ScopeTokenInfo}, owner.Scopes)
		require.Equal(t, "test-client", owner.Raw["client_id"])
	})

	t.Run("numeric user id and string scope", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"user_id":12345678901234567890,"scope":"a b  c"}`))
		})

		owner, err := client.FetchResourceOwner(context.Background(), "at1")
		require.NoError(t, err)
		require.Equal(t, "12345678901234567890", owner.UserID)
		require.Equal(t, []string{"a", "b", "c"}, owner.Scopes)
	})

	t.Run("empty user id", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"user_id":""}`))
		})

		_, err := client.FetchResourceOwner(context.Background(), "at1")
		var ownerErr *InvalidResourceOwnerError
		require.ErrorAs(t, err, &ownerErr)
	})

	t.Run("missing user id", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"client_id":"test-client"}`))
		})

		_, err := client.FetchResourceOwner(context.Background(), "at1")
		var ownerErr *InvalidResourceOwnerError
		require.ErrorAs(t, err, &ownerErr)
	})

	t.Run("invalid token", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_token","error_description":"The access token is invalid"}`))
		})

		_, err := client.FetchResourceOwner(context.Background(), "at1")
		var idpErr *IdentityProviderError
		require.ErrorAs(t, err, &idpErr)
		require.Equal(t, ErrorCodeInvalidToken, idpErr.Code)
	})

	t.Run("server failure", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := client.FetchResourceOwner(context.Background(), "at1")
		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
		require.Equal(t, http.StatusInternalServerError, transportErr.StatusCode)
		require.NotContains(t, transportErr.Error(), "at1")
	})
}

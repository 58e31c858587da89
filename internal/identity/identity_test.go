package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/writtenhq/written/internal/written"
)

func graphStub(t *testing.T) (*httptest.Server, *int) {
	t.Helper()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch r.URL.Query().Get("access_token") {
		case "good-token":
			w.Write([]byte(`{"id": "fb-123", "name": "Jane Writer"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	t.Cleanup(srv.Close)

	return srv, &calls
}

func TestVerify(t *testing.T) {
	srv, _ := graphStub(t)
	f := NewFacebook(WithGraphURL(srv.URL))

	ident, err := f.Verify(context.Background(), "fb-123", "good-token")
	require.NoError(t, err)
	assert.Equal(t, "fb-123", ident.FacebookID)
	assert.Equal(t, "Jane Writer", ident.Name)
}

func TestVerifyMismatchedID(t *testing.T) {
	srv, _ := graphStub(t)
	f := NewFacebook(WithGraphURL(srv.URL))

	_, err := f.Verify(context.Background(), "someone-else", "good-token")
	assert.ErrorIs(t, err, written.ErrInvalidToken)
}

func TestVerifyRejectedToken(t *testing.T) {
	srv, _ := graphStub(t)
	f := NewFacebook(WithGraphURL(srv.URL))

	_, err := f.Verify(context.Background(), "fb-123", "bad-token")
	assert.ErrorIs(t, err, written.ErrInvalidToken)
}

func TestVerifyCachesTokens(t *testing.T) {
	srv, calls := graphStub(t)
	f := NewFacebook(WithGraphURL(srv.URL))

	for range 3 {
		_, err := f.Verify(context.Background(), "fb-123", "good-token")
		require.NoError(t, err)
	}

	assert.Equal(t, 1, *calls)
}

package netx

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutPresigned(t *testing.T) {
	image := []byte("\x89PNG fake")

	t.Run("success", func(t *testing.T) {
		var gotBody []byte
		var gotCT, gotMethod, gotQuery string

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotCT = r.Header.Get("Content-Type")
			gotQuery = r.URL.Query().Get("X-Amz-Signature")
			gotBody, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
		}))
		defer ts.Close()

		err := PutPresigned(context.Background(), ts.Client(), ts.URL+"/businesses/b1/x.png?X-Amz-Signature=abc", "image/png", image)
		require.NoError(t, err)
		assert.Equal(t, http.MethodPut, gotMethod)
		assert.Equal(t, "image/png", gotCT)
		assert.Equal(t, "abc", gotQuery)
		assert.Equal(t, image, gotBody)
	})

	t.Run("rejected", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("SignatureDoesNotMatch"))
		}))
		defer ts.Close()

		err := PutPresigned(context.Background(), nil, ts.URL, "image/png", image)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "upload failed: 403")
		assert.Contains(t, err.Error(), "SignatureDoesNotMatch")
	})

	t.Run("network error", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		ts.Close()

		err := PutPresigned(context.Background(), nil, ts.URL, "image/png", image)
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "upload failed")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := PutPresigned(ctx, nil, "http://127.0.0.1:1", "image/png", image)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

package dataverse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mermdv/generator"
)

func testClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewHTTPClient(server.URL, StaticToken("test-token"))
	c.retry.initialDelay = time.Millisecond
	c.retry.jitter = 0
	return c
}

func TestWhoAmISendsHeaders(t *testing.T) {
	var got http.Header
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		assert.Equal(t, "/api/data/v9.2/WhoAmI", r.URL.Path)
		w.Write([]byte(`{"UserId":"u"}`))
	})

	require.NoError(t, c.WhoAmI(context.Background()))
	assert.Equal(t, "Bearer test-token", got.Get("Authorization"))
	assert.Equal(t, "4.0", got.Get("OData-Version"))
	assert.Equal(t, "application/json", got.Get("Accept"))
}

func TestCreateEntitySetsSolutionHeader(t *testing.T) {
	var header http.Header
	var payload generator.EntityMetadata
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusNoContent)
	})

	e := generator.EntityMetadata{SchemaName: "cto_customer"}
	require.NoError(t, c.CreateEntity(context.Background(), e, "ctosolution"))

	assert.Equal(t, "ctosolution", header.Get("MSCRM.SolutionUniqueName"))
	assert.Equal(t, "return=representation", header.Get("Prefer"))
	assert.Equal(t, "cto_customer", payload.SchemaName)
}

func TestRetryOnThrottle(t *testing.T) {
	attempts := 0
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	})

	require.NoError(t, c.WhoAmI(context.Background()))
	assert.Equal(t, 3, attempts)
}

func TestNoRetryOnClientError(t *testing.T) {
	attempts := 0
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad request"}}`))
	})

	err := c.WhoAmI(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, 1, attempts)
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c.retry.maxAttempts = 2

	err := c.WhoAmI(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Equal(t, 3, attempts) // first try plus two retries
}

func TestFindPublisher(t *testing.T) {
	var rawQuery string
	var query url.Values
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		query = r.URL.Query()
		w.Write([]byte(`{"value":[{"publisherid":"pub-123"}]}`))
	})

	id, found, err := c.FindPublisher(context.Background(), "ctopublisher")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "pub-123", id)

	// The filter expression contains spaces; they must not reach the
	// request line unencoded.
	assert.NotContains(t, rawQuery, " ")
	assert.Equal(t, "uniquename eq 'ctopublisher'", query.Get("$filter"))
	assert.Equal(t, "publisherid", query.Get("$select"))
}

func TestFindSolutionEncodesQuery(t *testing.T) {
	var rawQuery string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		assert.Equal(t, "/api/data/v9.2/solutions", r.URL.Path)
		w.Write([]byte(`{"value":[{"solutionid":"sol-123"}]}`))
	})

	id, found, err := c.FindSolution(context.Background(), "ctosolution")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "sol-123", id)
	assert.NotContains(t, rawQuery, " ")
}

func TestFindPublisherNotFound(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[]}`))
	})

	_, found, err := c.FindPublisher(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCreatePublisherReturnsID(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"publisherid":"pub-456"}`))
	})

	id, err := c.CreatePublisher(context.Background(), generator.Publisher{UniqueName: "cto"})
	require.NoError(t, err)
	assert.Equal(t, "pub-456", id)
}

func TestListEntities(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/data/v9.2/EntityDefinitions", r.URL.Path)
		w.Write([]byte(`{"value":[{"LogicalName":"account"},{"LogicalName":"cto_customer"}]}`))
	})

	entities, err := c.ListEntities(context.Background())
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "cto_customer", entities[1].LogicalName)
}

func TestContextCancellationStopsRetry(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	c.retry.initialDelay = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.WhoAmI(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brickwise/brickwise-engine/pkg/apperrors"
	"github.com/brickwise/brickwise-engine/pkg/metrics"
)

const testBaseURL = "https://catalog.test/api/v3"

func newMockedClient(t *testing.T) (*Client, *httpmock.MockTransport) {
	t.Helper()
	m, err := metrics.NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	client, err := NewClient(Config{BaseURL: testBaseURL + "/", APIKey: "test-key-0123456789"}, m, zap.NewNop())
	require.NoError(t, err)

	transport := httpmock.NewMockTransport()
	client.httpClient.Transport = transport
	return client, transport
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{}, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestSetsContaining(t *testing.T) {
	client, transport := newMockedClient(t)

	transport.RegisterResponder(http.MethodGet, testBaseURL+"/lego/parts/3001/colors/4/sets/",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "key test-key-0123456789", req.Header.Get("Authorization"))
			assert.Equal(t, "1000", req.URL.Query().Get("page_size"))
			return httpmock.NewStringResponse(http.StatusOK, `{
				"count": 2,
				"next": null,
				"results": [
					{"set_num": "6020-1", "name": "Magic Shop", "year": 1993, "theme_id": 1, "num_parts": 194,
					 "set_img_url": "https://img/6020-1.jpg", "set_url": "https://rebrickable.com/sets/6020-1/magic-shop/"},
					{"set_num": "10696-1", "name": "Medium Creative Brick Box", "year": 2015, "num_parts": 484, "quantity": 6}
				]
			}`), nil
		})

	sets, err := client.SetsContaining(context.Background(), "3001", 4)
	require.NoError(t, err)
	require.Len(t, sets, 2)

	assert.Equal(t, "6020-1", sets[0].SetNum)
	assert.Equal(t, 194, sets[0].NumParts)
	assert.Equal(t, 1, sets[0].QuantityInSet)
	assert.Equal(t, "https://rebrickable.com/sets/6020-1/magic-shop/", sets[0].SetURL)

	assert.Equal(t, 6, sets[1].QuantityInSet)
	assert.Equal(t, "https://rebrickable.com/sets/10696-1", sets[1].SetURL)
}

func TestSetsContaining_IsCached(t *testing.T) {
	client, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodGet, testBaseURL+"/lego/parts/3001/colors/4/sets/",
		httpmock.NewStringResponder(http.StatusOK, `{"count": 0, "results": []}`))

	for i := 0; i < 3; i++ {
		_, err := client.SetsContaining(context.Background(), "3001", 4)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestSetsContaining_ErrorsAreNotCached(t *testing.T) {
	client, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodGet, testBaseURL+"/lego/parts/3001/colors/4/sets/",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "maintenance"))

	for i := 0; i < 2; i++ {
		_, err := client.SetsContaining(context.Background(), "3001", 4)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
	}
	assert.Equal(t, 2, transport.GetTotalCallCount())
}

func TestSetsContaining_NotFound(t *testing.T) {
	client, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodGet, testBaseURL+"/lego/parts/nope/colors/4/sets/",
		httpmock.NewStringResponder(http.StatusNotFound, `{"detail": "Not found."}`))

	_, err := client.SetsContaining(context.Background(), "nope", 4)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCatalogError_DoesNotLeakKey(t *testing.T) {
	client, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodGet, testBaseURL+"/lego/parts/3001/colors/",
		httpmock.NewErrorResponder(errors.New("rejected header Authorization: key test-key-0123456789")))

	_, err := client.PartColors(context.Background(), "3001")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "test-key-0123456789")
}

// slowCatalog answers after delay, or as soon as the client gives up.
func slowCatalog(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(delay):
			_, _ = w.Write([]byte(`{"count":0,"results":[]}`))
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCatalogError_KeepsDeadlineCause(t *testing.T) {
	srv := slowCatalog(t, 300*time.Millisecond)

	t.Run("context deadline", func(t *testing.T) {
		client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key-0123456789"}, nil, zap.NewNop())
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err = client.SearchSets(ctx, "castle")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Contains(t, err.Error(), "catalog search_sets request")
	})

	t.Run("configured timeout", func(t *testing.T) {
		client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key-0123456789", Timeout: 50 * time.Millisecond}, nil, zap.NewNop())
		require.NoError(t, err)

		_, err = client.SearchSets(context.Background(), "castle")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestPartColors(t *testing.T) {
	client, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodGet, testBaseURL+"/lego/parts/3001/colors/",
		httpmock.NewStringResponder(http.StatusOK, `{
			"count": 2,
			"results": [
				{"color_id": 4, "color_name": "Red", "num_sets": 1200, "num_set_parts": 5000, "part_img_url": "https://img/3001-4.jpg"},
				{"color_id": 1, "color_name": "Blue", "num_sets": 800, "num_set_parts": 3000}
			]
		}`))

	colors, err := client.PartColors(context.Background(), "3001")
	require.NoError(t, err)
	require.Len(t, colors, 2)
	assert.Equal(t, 4, colors[0].ColorID)
	assert.Equal(t, "Red", colors[0].ColorName)
	assert.Equal(t, 1200, colors[0].NumSets)
	assert.Equal(t, "https://img/3001-4.jpg", colors[0].PartImgURL)
}

func TestPartColorDetails(t *testing.T) {
	client, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodGet, testBaseURL+"/lego/parts/3001/colors/4/",
		httpmock.NewStringResponder(http.StatusOK, `{"part_img_url": "https://img/3001-4.jpg", "year_from": 1958, "year_to": 2024, "num_sets": 1200, "num_set_parts": 5000}`))

	details, err := client.PartColorDetails(context.Background(), "3001", 4)
	require.NoError(t, err)
	assert.Equal(t, "https://img/3001-4.jpg", details.PartImgURL)
	assert.Equal(t, 1958, details.YearFrom)
}

func TestSearchSets(t *testing.T) {
	client, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodGet, testBaseURL+"/lego/sets/",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "castle", req.URL.Query().Get("search"))
			assert.Equal(t, "20", req.URL.Query().Get("page_size"))
			return httpmock.NewStringResponse(http.StatusOK, `{
				"count": 1,
				"results": [{"set_num": "6080-1", "name": "King's Castle", "year": 1984, "num_parts": 674, "set_img_url": "https://img/6080-1.jpg"}]
			}`), nil
		})

	results, err := client.SearchSets(context.Background(), "  castle ")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "6080-1", results[0].SetID)
	assert.Equal(t, "King's Castle", results[0].Name)
	assert.Equal(t, 674, results[0].PartsCount)
	assert.Equal(t, 1984, results[0].Year)
}

func TestSearchSets_EmptyQuery(t *testing.T) {
	client, transport := newMockedClient(t)

	_, err := client.SearchSets(context.Background(), "   ")
	assert.ErrorIs(t, err, apperrors.ErrEmptyQuery)
	assert.Equal(t, 0, transport.GetTotalCallCount())
}

func TestSetURL(t *testing.T) {
	assert.Equal(t, "https://rebrickable.com/sets/75192-1", SetURL("75192-1"))
}

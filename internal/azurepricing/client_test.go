package azurepricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type retailPage struct {
	Items        []map[string]interface{} `json:"Items"`
	NextPageLink string                   `json:"NextPageLink"`
}

func TestODataFilter(t *testing.T) {
	f := Filter{
		ServiceName:   "Virtual Machines",
		ArmRegionName: "westus2",
		SkuName:       "B1s",
	}
	assert.Equal(t,
		"serviceName eq 'Virtual Machines' and armRegionName eq 'westus2' and skuName eq 'B1s'",
		f.odataFilter())

	assert.Equal(t, "", Filter{}.odataFilter())
}

func TestGetPricesFollowsNextPageLink(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := retailPage{}
		if r.URL.Query().Get("page") == "2" {
			page.Items = []map[string]interface{}{{"skuId": "b", "retailPrice": 2.0}}
		} else {
			filter := r.URL.Query().Get("$filter")
			if filter != "serviceName eq 'Virtual Machines' and armRegionName eq 'westus2'" {
				t.Errorf("unexpected $filter: %s", filter)
			}
			page.Items = []map[string]interface{}{{"skuId": "a", "retailPrice": 1.0}}
			page.NextPageLink = server.URL + "?page=2"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(page)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	items, err := client.GetPrices(context.Background(), Filter{
		ServiceName:   "Virtual Machines",
		ArmRegionName: "westus2",
	}, 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0]["skuId"])
	assert.Equal(t, "b", items[1]["skuId"])
}

func TestGetPricesStopsAtMaxPages(t *testing.T) {
	calls := 0
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(retailPage{
			Items:        []map[string]interface{}{{"skuId": fmt.Sprintf("s%d", calls), "retailPrice": 1.0}},
			NextPageLink: server.URL + "?more=1",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	items, err := client.GetPrices(context.Background(), Filter{}, 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 2, calls)
}

func TestGetPricesClientErrorNoRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad filter", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GetPrices(context.Background(), Filter{}, 1)
	require.Error(t, err)

	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusBadRequest, ue.StatusCode)
	assert.Equal(t, 1, calls, "4xx responses must not be retried")
}

func TestGetPricesRetriesServerErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(retailPage{
			Items: []map[string]interface{}{{"skuId": "a", "retailPrice": 1.0}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	items, err := client.GetPrices(context.Background(), Filter{}, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 3, calls)
}

func TestMinRetailPriceOf(t *testing.T) {
	items := []map[string]interface{}{
		{"retailPrice": 0.0},
		{"retailPrice": 0.25},
		{"retailPrice": 1.5},
	}
	got := MinRetailPriceOf(items)
	require.NotNil(t, got)
	assert.Equal(t, 0.25, *got)

	assert.Nil(t, MinRetailPriceOf(nil))

	zero := MinRetailPriceOf([]map[string]interface{}{{"retailPrice": 0.0}})
	require.NotNil(t, zero)
	assert.Equal(t, 0.0, *zero)
}

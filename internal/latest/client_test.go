package latest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/loto-backend/internal/history"
)

const payload = `{
  "numero": 3000,
  "dataApuracao": "16/10/2025",
  "listaDezenas": ["01","03","04","05","07","09","10","12","14","15","18","20","22","24","25"]
}`

func TestParse(t *testing.T) {
	res, err := Parse([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, 3000, res.Number)
	assert.Equal(t, "16/10/2025", res.Date)
	assert.Len(t, res.Numbers, 15)
	assert.Equal(t, 1, res.Numbers[0])

	d, err := res.Draw(history.DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, 15, d.Numbers.Len())
}

func TestParseFallbacks(t *testing.T) {
	res, err := Parse([]byte(`{"numero": 7, "data": "01/01/2024",
		"listaDezenas": [], "dezenasSorteadasOrdemSorteio": ["25", "x", "02"]}`))
	require.NoError(t, err)
	assert.Equal(t, "01/01/2024", res.Date)
	assert.Equal(t, []int{25, 2}, res.Numbers)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`{nope`))
	assert.ErrorIs(t, err, ErrBadResponse)
	_, err = Parse([]byte(`{"data": "x"}`))
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, 100, nil)
	res, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3000, res.Number)
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, 100, nil).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestFetchNotConfigured(t *testing.T) {
	_, err := NewClient("", time.Second, 1, nil).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

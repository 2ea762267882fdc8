// Package latest fetches the most recent official draw from a JSON endpoint.
// The result is reported as is and never merged into the loaded history.
package latest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/xtding233/loto-backend/internal/history"
)

var (
	ErrNotConfigured = errors.New("latest draw endpoint not configured")
	ErrBadResponse   = errors.New("unexpected latest draw response")
)

const maxBody = 1 << 20

// Result is the official latest draw. Numbers keep the endpoint's order.
type Result struct {
	Number  int    `json:"number"`
	Date    string `json:"date"`
	Numbers []int  `json:"numbers"`
}

// Draw validates r against the lottery rules.
func (r Result) Draw(rules history.Rules) (history.Draw, error) {
	return history.ValidateDraw(rules, history.RawDraw{ID: r.Number, Date: r.Date, Numbers: r.Numbers})
}

// Client talks to the endpoint, at most ratePerSecond requests per second.
type Client struct {
	url     string
	http    *http.Client
	limiter *rate.Limiter
	log     *logrus.Entry
}

// NewClient builds a client. An empty url yields a client whose Fetch always
// returns ErrNotConfigured.
func NewClient(url string, timeout time.Duration, ratePerSecond float64, log *logrus.Entry) *Client {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{
		url:     url,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		log:     log.WithField("component", "latest"),
	}
}

// Fetch requests and parses the latest draw.
func (c *Client) Fetch(ctx context.Context) (Result, error) {
	if c.url == "" {
		return Result{}, ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("fetch latest draw: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return Result{}, fmt.Errorf("fetch latest draw: %w", err)
	}
	c.log.WithFields(logrus.Fields{
		"status":  resp.StatusCode,
		"elapsed": time.Since(start).String(),
	}).Debug("latest draw fetched")

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: HTTP %d", ErrBadResponse, resp.StatusCode)
	}
	return Parse(body)
}

// Parse extracts number, date and numbers from an endpoint payload.
// Date falls back from "dataApuracao" to "data"; numbers from "listaDezenas"
// to "dezenasSorteadasOrdemSorteio". Non-numeric entries are skipped.
func Parse(body []byte) (Result, error) {
	if !gjson.ValidBytes(body) {
		return Result{}, fmt.Errorf("%w: invalid JSON", ErrBadResponse)
	}
	doc := gjson.ParseBytes(body)

	num := doc.Get("numero")
	if !num.Exists() {
		return Result{}, fmt.Errorf("%w: missing numero", ErrBadResponse)
	}
	res := Result{Number: int(num.Int())}

	res.Date = doc.Get("dataApuracao").String()
	if res.Date == "" {
		res.Date = doc.Get("data").String()
	}

	nums := doc.Get("listaDezenas")
	if !nums.IsArray() || len(nums.Array()) == 0 {
		nums = doc.Get("dezenasSorteadasOrdemSorteio")
	}
	res.Numbers = []int{}
	for _, v := range nums.Array() {
		n, err := strconv.Atoi(strings.TrimSpace(v.String()))
		if err != nil {
			continue
		}
		res.Numbers = append(res.Numbers, n)
	}
	return res, nil
}

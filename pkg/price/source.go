package price

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoPrice 來源沒有提供可用的價格
var ErrNoPrice = errors.New("price: no price available")

// Source 外部報價來源
type Source interface {
	Fetch(ctx context.Context) (decimal.Decimal, error)
	Name() string
}

// StaticSource 固定價格，離線或測試時使用
type StaticSource struct {
	Price decimal.Decimal
}

func (s StaticSource) Fetch(ctx context.Context) (decimal.Decimal, error) {
	if !s.Price.IsPositive() {
		return decimal.Zero, ErrNoPrice
	}
	return s.Price, nil
}

func (StaticSource) Name() string { return "static" }

// httpSource HTTP JSON 來源共用部分
type httpSource struct {
	client *http.Client
}

func newHTTPSource(client *http.Client) httpSource {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return httpSource{client: client}
}

func (h httpSource) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("price: %s returned %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// CoinGeckoSource simple/price API
//
//	GET {BaseURL}/simple/price?ids={CoinID}&vs_currencies={VsCurrency}
//	-> {"bitcoin":{"usd":64000.12}}
type CoinGeckoSource struct {
	httpSource
	BaseURL    string
	CoinID     string
	VsCurrency string
}

func NewCoinGeckoSource(baseURL, coinID, vsCurrency string, client *http.Client) *CoinGeckoSource {
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	if coinID == "" {
		coinID = "bitcoin"
	}
	if vsCurrency == "" {
		vsCurrency = "usd"
	}
	return &CoinGeckoSource{
		httpSource: newHTTPSource(client),
		BaseURL:    strings.TrimRight(baseURL, "/"),
		CoinID:     coinID,
		VsCurrency: vsCurrency,
	}
}

func (s *CoinGeckoSource) Name() string { return "coingecko" }

func (s *CoinGeckoSource) Fetch(ctx context.Context) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("ids", s.CoinID)
	q.Set("vs_currencies", s.VsCurrency)
	var body map[string]map[string]decimal.Decimal
	if err := s.getJSON(ctx, s.BaseURL+"/simple/price?"+q.Encode(), &body); err != nil {
		return decimal.Zero, err
	}
	p, ok := body[s.CoinID][s.VsCurrency]
	if !ok || !p.IsPositive() {
		return decimal.Zero, ErrNoPrice
	}
	return p, nil
}

// CoinDeskSource BPI currentprice API
//
//	GET {URL} -> {"bpi":{"USD":{"rate_float":64000.12}}}
type CoinDeskSource struct {
	httpSource
	URL      string
	Currency string
}

func NewCoinDeskSource(endpoint, currency string, client *http.Client) *CoinDeskSource {
	if endpoint == "" {
		endpoint = "https://api.coindesk.com/v1/bpi/currentprice.json"
	}
	if currency == "" {
		currency = "USD"
	}
	return &CoinDeskSource{
		httpSource: newHTTPSource(client),
		URL:        endpoint,
		Currency:   strings.ToUpper(currency),
	}
}

func (s *CoinDeskSource) Name() string { return "coindesk" }

func (s *CoinDeskSource) Fetch(ctx context.Context) (decimal.Decimal, error) {
	var body struct {
		BPI map[string]struct {
			RateFloat decimal.Decimal `json:"rate_float"`
		} `json:"bpi"`
	}
	if err := s.getJSON(ctx, s.URL, &body); err != nil {
		return decimal.Zero, err
	}
	p, ok := body.BPI[s.Currency]
	if !ok || !p.RateFloat.IsPositive() {
		return decimal.Zero, ErrNoPrice
	}
	return p.RateFloat, nil
}

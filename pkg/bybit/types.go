package bybit

import "encoding/json"

// BybitResponse represents a generic response from Bybit's V5 REST API.
// This structure covers the standard response envelope used across all endpoints.
type BybitResponse struct {
	RetCode    int                    `json:"retCode"`    // 0 means success; non-zero indicates an error code
	RetMsg     string                 `json:"retMsg"`     // Human-readable message describing the result or error
	Result     json.RawMessage        `json:"result"`     // Delay decoding // Main response payload (varies per endpoint)
	RetExtInfo map[string]interface{} `json:"retExtInfo"` // Optional extra info (e.g. rate limits, error hints)
	Time       int64                  `json:"time"`       // Server timestamp (in milliseconds since epoch)
}

type TickerListResponse struct {
	Category string   `json:"category"` // e.g., "linear", "spot"
	List     []Ticker `json:"list"`
}

// Ticker is the subset of /v5/market/tickers fields we consume.
type Ticker struct {
	Symbol       string `json:"symbol"`       // e.g., "BTCUSDT"
	LastPrice    string `json:"lastPrice"`    // Last traded price
	Bid1Price    string `json:"bid1Price"`    // Best bid
	Ask1Price    string `json:"ask1Price"`    // Best ask
	Volume24h    string `json:"volume24h"`    // 24h volume (base coin)
	Price24hPcnt string `json:"price24hPcnt"` // 24h change as a fraction
}

package domain

// AnalysisRecord is a journaled TokenAnalysisResult.
// Corresponds to token_analyses table in PostgreSQL.
type AnalysisRecord struct {
	ID            string       `json:"id"`             // PK, deterministic hash of mint and checked_at
	Mint          string       `json:"mint"`           // token mint address
	Symbol        string       `json:"symbol"`         // token symbol
	RiskScore     int          `json:"riskScore"`      // 0..100
	RiskLevel     RiskLevel    `json:"riskLevel"`      // LOW..CRITICAL
	Signal        Signal       `json:"signal"`         // trade signal
	Honeypot      bool         `json:"honeypot"`       // honeypot flag from security source
	PriceUSD      float64      `json:"priceUsd"`       // price at check time
	LiquidityUSD  float64      `json:"liquidityUsd"`   // liquidity at check time
	MarketCap     float64      `json:"marketCap"`      // market cap at check time
	SecuritySrc   string       `json:"securitySource"` // rugcheck, rpc or empty
	Factors       []RiskFactor `json:"factors"`        // evaluated factors, stored as JSONB
	SignalReasons []string     `json:"signalReasons"`  // stored as JSONB
	CheckedAt     int64        `json:"checkedAt"`      // analysis time (ms)
	CreatedAt     int64        `json:"createdAt"`      // record creation timestamp (ms)
}

// SentimentRecord is a journaled SentimentReport without the post list.
// Corresponds to sentiment_reports table in PostgreSQL.
type SentimentRecord struct {
	ID           string         `json:"id"`
	Mint         string         `json:"mint"`
	Status       ReportStatus   `json:"status"`
	TotalPosts   int            `json:"totalPosts"`
	HumanPosts   int            `json:"humanPosts"`
	BotFiltered  int            `json:"botFiltered"`
	Duplicates   int            `json:"duplicates"`
	Bullish      int            `json:"bullish"`
	Bearish      int            `json:"bearish"`
	Neutral      int            `json:"neutral"`
	OverallScore int            `json:"overallScore"`
	OverallLabel SentimentLabel `json:"overallLabel"`
	QualityScore int            `json:"qualityScore"`
	GeneratedAt  int64          `json:"generatedAt"` // ms
	CreatedAt    int64          `json:"createdAt"`   // ms
}

// Score point kinds.
const (
	ScoreKindRisk      = "risk"
	ScoreKindSentiment = "sentiment"
)

// ScorePoint is one sample of a score time series.
// Corresponds to score_timeseries table in ClickHouse.
type ScorePoint struct {
	Mint        string  `json:"mint"`
	Kind        string  `json:"kind"`        // risk or sentiment
	TimestampMs int64   `json:"timestampMs"` // sample time
	Value       float64 `json:"value"`       // risk score 0..100 or sentiment score -100..100
	Label       string  `json:"label"`       // risk level or sentiment label
}

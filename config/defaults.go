package config

const (
	DefaultModel          = "anthropic/claude-sonnet-4.5"
	DefaultLLMBaseURL     = "https://openrouter.ai/api/v1"
	DefaultZeroGPTURL     = "https://api.zerogpt.com"
	DefaultDataForSEOURL  = "https://api.dataforseo.com"
	DefaultPubMedURL      = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	DefaultTargetScore    = 75
	DefaultMaxAttempts    = 3
	DefaultRetryDelayMS   = 1000
	DefaultTempStep       = 0.05
	DefaultTopK           = 15
	DefaultPubMedResults  = 20
	DefaultMaxTokens      = 8000
	DefaultPostStatus     = "draft"
	DefaultSite           = "biohacking"
	DefaultStateDir       = "data"
	DefaultServerAddr     = ":3000"
	DefaultLogMode        = "production"
	DefaultLogLevel       = "info"
	DefaultLLMTimeoutSecs = 180
)

func (c *Config) applyDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openrouter"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultModel
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = DefaultLLMBaseURL
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = DefaultMaxTokens
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = DefaultLLMTimeoutSecs
	}
	if c.ZeroGPT.BaseURL == "" {
		c.ZeroGPT.BaseURL = DefaultZeroGPTURL
	}
	if c.DataForSEO.BaseURL == "" {
		c.DataForSEO.BaseURL = DefaultDataForSEOURL
	}
	if c.DataForSEO.LocationName == "" {
		c.DataForSEO.LocationName = "United States"
	}
	if c.DataForSEO.LanguageCode == "" {
		c.DataForSEO.LanguageCode = "en"
	}
	if c.DataForSEO.Limit <= 0 {
		c.DataForSEO.Limit = 200
	}
	if c.DataForSEO.Depth <= 0 {
		c.DataForSEO.Depth = 2
	}
	if c.DataForSEO.TopK <= 0 {
		c.DataForSEO.TopK = DefaultTopK
	}
	if c.PubMed.BaseURL == "" {
		c.PubMed.BaseURL = DefaultPubMedURL
	}
	if c.PubMed.MaxResults <= 0 {
		c.PubMed.MaxResults = DefaultPubMedResults
	}
	if c.WordPress.Status == "" {
		c.WordPress.Status = DefaultPostStatus
	}
	if c.Generation.TargetScore == 0 {
		c.Generation.TargetScore = DefaultTargetScore
	}
	if c.Generation.MaxAttempts == 0 {
		c.Generation.MaxAttempts = DefaultMaxAttempts
	}
	if c.Generation.RetryDelayMS == 0 {
		c.Generation.RetryDelayMS = DefaultRetryDelayMS
	}
	if c.Generation.TemperatureStep == nil {
		step := DefaultTempStep
		c.Generation.TemperatureStep = &step
	}
	if c.Site == "" {
		c.Site = DefaultSite
	}
	if c.StateDir == "" {
		c.StateDir = DefaultStateDir
	}
	if c.ServerAddr == "" {
		c.ServerAddr = DefaultServerAddr
	}
	if c.Log.Mode == "" {
		c.Log.Mode = DefaultLogMode
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

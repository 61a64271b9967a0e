package imepay

import "github.com/mstgnz/nepalpay/provider"

const (
	sandboxBaseURL    = "https://stg.imepay.com.np"
	productionBaseURL = "https://imepay.com.np"
	sandboxAPIURL     = "https://stgapi.imepay.com.np"
	productionAPIURL  = "https://api.imepay.com.np"

	verifyPath = "/api/verify"
)

// Config is the validated IME Pay configuration
type Config struct {
	provider.BaseConfig

	MerchantCode string `config:"merchantCode" validate:"required"`
	MerchantName string `config:"merchantName" validate:"required"`
	Username     string `config:"username" validate:"required"`
	Password     string `config:"password" validate:"required"`
	Module       string `config:"module" validate:"required"`
	SuccessURL   string `config:"successUrl" validate:"required,url"`
	FailureURL   string `config:"failureUrl" validate:"required,url"`
	BaseURL      string `config:"baseUrl" validate:"required,url"`
	APIURL       string `config:"apiUrl" validate:"required,url"`

	CallbackMode provider.CallbackMode `config:"callbackMode"`
}

// BuildConfig validates raw settings and applies environment defaults
func BuildConfig(raw provider.RawConfig) (*Config, error) {
	base, err := provider.ResolveBaseConfig(provider.ImePay, raw)
	if err != nil {
		return nil, err
	}
	mode, err := provider.ResolveCallbackMode(provider.ImePay, raw, provider.CallbackDirect)
	if err != nil {
		return nil, err
	}

	baseURL, apiURL := sandboxBaseURL, sandboxAPIURL
	if base.IsProduction() {
		baseURL, apiURL = productionBaseURL, productionAPIURL
	}

	cfg := &Config{
		BaseConfig:   base,
		MerchantCode: raw.Get("merchantCode"),
		MerchantName: raw.Get("merchantName"),
		Username:     raw.Get("username"),
		Password:     raw.Get("password"),
		Module:       raw.Get("module"),
		SuccessURL:   raw.Get("successUrl"),
		FailureURL:   raw.Get("failureUrl"),
		BaseURL:      provider.TrimTrailingSlash(raw.GetOr("baseUrl", baseURL)),
		APIURL:       provider.TrimTrailingSlash(raw.GetOr("apiUrl", apiURL)),
		CallbackMode: mode,
	}

	if err := provider.ValidateConfig(provider.ImePay, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

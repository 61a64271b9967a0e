package prabhupay

import "github.com/mstgnz/nepalpay/provider"

const (
	sandboxBaseURL    = "https://sandbox.prabhupay.com.np"
	productionBaseURL = "https://api.prabhupay.com.np"
	sandboxAPIURL     = "https://sandbox-api.prabhupay.com.np"
	productionAPIURL  = "https://api.prabhupay.com.np"

	verifyPath = "/api/verify"
)

// Config is the validated Prabhu Pay configuration
type Config struct {
	provider.BaseConfig

	MerchantID string `config:"merchantId" validate:"required"`
	APIKey     string `config:"apiKey" validate:"required"`
	SecretKey  string `config:"secretKey" validate:"required"`
	SuccessURL string `config:"successUrl" validate:"required,url"`
	FailureURL string `config:"failureUrl" validate:"required,url"`
	BaseURL    string `config:"baseUrl" validate:"required,url"`
	APIURL     string `config:"apiUrl" validate:"required,url"`

	CallbackMode provider.CallbackMode `config:"callbackMode"`
}

// BuildConfig validates raw settings and applies environment defaults
func BuildConfig(raw provider.RawConfig) (*Config, error) {
	base, err := provider.ResolveBaseConfig(provider.PrabhuPay, raw)
	if err != nil {
		return nil, err
	}
	mode, err := provider.ResolveCallbackMode(provider.PrabhuPay, raw, provider.CallbackDirect)
	if err != nil {
		return nil, err
	}

	baseURL, apiURL := sandboxBaseURL, sandboxAPIURL
	if base.IsProduction() {
		baseURL, apiURL = productionBaseURL, productionAPIURL
	}

	cfg := &Config{
		BaseConfig:   base,
		MerchantID:   raw.Get("merchantId"),
		APIKey:       raw.Get("apiKey"),
		SecretKey:    raw.Get("secretKey"),
		SuccessURL:   raw.Get("successUrl"),
		FailureURL:   raw.Get("failureUrl"),
		BaseURL:      provider.TrimTrailingSlash(raw.GetOr("baseUrl", baseURL)),
		APIURL:       provider.TrimTrailingSlash(raw.GetOr("apiUrl", apiURL)),
		CallbackMode: mode,
	}

	if err := provider.ValidateConfig(provider.PrabhuPay, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

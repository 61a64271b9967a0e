package connectips

import "github.com/mstgnz/nepalpay/provider"

const (
	sandboxBaseURL      = "https://sandbox.connectips.com"
	productionBaseURL   = "https://api.connectips.com"
	sandboxStatusURL    = "https://sandbox.connectips.com/api/merchant/status"
	productionStatusURL = "https://api.connectips.com/api/merchant/status"
)

// Config is the validated ConnectIPS configuration
type Config struct {
	provider.BaseConfig

	MerchantID string `config:"merchantId" validate:"required"`
	AppID      string `config:"appId" validate:"required"`
	AppSecret  string `config:"appSecret" validate:"required"`
	Username   string `config:"username" validate:"required"`
	SuccessURL string `config:"successUrl" validate:"required,url"`
	FailureURL string `config:"failureUrl" validate:"required,url"`
	BaseURL    string `config:"baseUrl" validate:"required,url"`
	StatusURL  string `config:"statusUrl" validate:"required,url"`

	CallbackMode provider.CallbackMode `config:"callbackMode"`
}

// BuildConfig validates raw settings and applies environment defaults
func BuildConfig(raw provider.RawConfig) (*Config, error) {
	base, err := provider.ResolveBaseConfig(provider.ConnectIPS, raw)
	if err != nil {
		return nil, err
	}
	mode, err := provider.ResolveCallbackMode(provider.ConnectIPS, raw, provider.CallbackDirect)
	if err != nil {
		return nil, err
	}

	baseURL, statusURL := sandboxBaseURL, sandboxStatusURL
	if base.IsProduction() {
		baseURL, statusURL = productionBaseURL, productionStatusURL
	}

	cfg := &Config{
		BaseConfig:   base,
		MerchantID:   raw.Get("merchantId"),
		AppID:        raw.Get("appId"),
		AppSecret:    raw.Get("appSecret"),
		Username:     raw.Get("username"),
		SuccessURL:   raw.Get("successUrl"),
		FailureURL:   raw.Get("failureUrl"),
		BaseURL:      provider.TrimTrailingSlash(raw.GetOr("baseUrl", baseURL)),
		StatusURL:    raw.GetOr("statusUrl", statusURL),
		CallbackMode: mode,
	}

	if err := provider.ValidateConfig(provider.ConnectIPS, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

package globalime

import "github.com/mstgnz/nepalpay/provider"

const (
	sandboxBaseURL    = "https://sandbox.globalime.com.np"
	productionBaseURL = "https://api.globalime.com.np"
	sandboxAPIURL     = "https://sandbox-api.globalime.com.np"
	productionAPIURL  = "https://api.globalime.com.np"

	verifyPath = "/api/verify"
)

// Config is the validated Global IME Bank configuration
type Config struct {
	provider.BaseConfig

	MerchantCode string `config:"merchantCode" validate:"required"`
	MerchantName string `config:"merchantName" validate:"required"`
	Username     string `config:"username" validate:"required"`
	Password     string `config:"password" validate:"required"`
	APIKey       string `config:"apiKey" validate:"required"`
	SuccessURL   string `config:"successUrl" validate:"required,url"`
	FailureURL   string `config:"failureUrl" validate:"required,url"`
	BaseURL      string `config:"baseUrl" validate:"required,url"`
	APIURL       string `config:"apiUrl" validate:"required,url"`

	CallbackMode provider.CallbackMode `config:"callbackMode"`
}

func BuildConfig(raw provider.RawConfig) (*Config, error) {
	base, err := provider.ResolveBaseConfig(provider.GlobalIME, raw)
	if err != nil {
		return nil, err
	}
	mode, err := provider.ResolveCallbackMode(provider.GlobalIME, raw, provider.CallbackDirect)
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
		APIKey:       raw.Get("apiKey"),
		SuccessURL:   raw.Get("successUrl"),
		FailureURL:   raw.Get("failureUrl"),
		BaseURL:      provider.TrimTrailingSlash(raw.GetOr("baseUrl", baseURL)),
		APIURL:       provider.TrimTrailingSlash(raw.GetOr("apiUrl", apiURL)),
		CallbackMode: mode,
	}

	if err := provider.ValidateConfig(provider.GlobalIME, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

package esewa

import (
	"strings"

	"github.com/mstgnz/nepalpay/infra/signing"
	"github.com/mstgnz/nepalpay/provider"
)

const (
	sandboxBaseURL      = "https://rc-epay.esewa.com.np/api/epay/main/v2"
	productionBaseURL   = "https://epay.esewa.com.np/api/epay/main/v2"
	sandboxStatusURL    = "https://rc.esewa.com.np/api/epay/transaction/status"
	productionStatusURL = "https://esewa.com.np/api/epay/transaction/status"

	defaultSignedFieldNames = "total_amount,transaction_uuid,product_code"
)

// Config is the validated eSewa configuration
type Config struct {
	provider.BaseConfig

	MerchantID  string `config:"merchantId" validate:"required"`
	ProductCode string `config:"productCode" validate:"required"`
	SecretKey   string `config:"secretKey" validate:"required"`
	SuccessURL  string `config:"successUrl" validate:"required,url"`
	FailureURL  string `config:"failureUrl" validate:"required,url"`
	BaseURL     string `config:"baseUrl" validate:"required,url"`
	StatusURL   string `config:"statusUrl" validate:"required,url"`

	// SignedFieldNames is the order in which outgoing form fields are signed
	SignedFieldNames []string `config:"signedFieldNames"`

	// FormURL is BaseURL with the /form suffix the checkout form posts to
	FormURL string `config:"-"`
}

// BuildConfig validates raw settings and applies environment defaults
func BuildConfig(raw provider.RawConfig) (*Config, error) {
	base, err := provider.ResolveBaseConfig(provider.Esewa, raw)
	if err != nil {
		return nil, err
	}

	baseURL, statusURL := sandboxBaseURL, sandboxStatusURL
	if base.IsProduction() {
		baseURL, statusURL = productionBaseURL, productionStatusURL
	}

	cfg := &Config{
		BaseConfig:       base,
		MerchantID:       raw.Get("merchantId"),
		ProductCode:      raw.Get("productCode"),
		SecretKey:        raw.Get("secretKey"),
		SuccessURL:       raw.Get("successUrl"),
		FailureURL:       raw.Get("failureUrl"),
		BaseURL:          raw.GetOr("baseUrl", baseURL),
		StatusURL:        raw.GetOr("statusUrl", statusURL),
		SignedFieldNames: signing.ParseFieldNames(raw.GetOr("signedFieldNames", defaultSignedFieldNames)),
	}

	if err := provider.ValidateConfig(provider.Esewa, cfg); err != nil {
		return nil, err
	}
	if len(cfg.SignedFieldNames) == 0 {
		return nil, provider.ConfigError(provider.Esewa, "invalid esewa configuration: signedFieldNames must list at least one field", nil)
	}

	cfg.FormURL = formURL(cfg.BaseURL)
	return cfg, nil
}

func formURL(baseURL string) string {
	if strings.HasSuffix(baseURL, "/form") {
		return baseURL
	}
	return provider.TrimTrailingSlash(baseURL) + "/form"
}

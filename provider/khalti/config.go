package khalti

import "github.com/mstgnz/nepalpay/provider"

const (
	sandboxBaseURL    = "https://dev.khalti.com/api/v2"
	productionBaseURL = "https://khalti.com/api/v2"

	sandboxRefundURL    = "https://dev.khalti.com/api/merchant-transaction"
	productionRefundURL = "https://khalti.com/api/merchant-transaction"

	initiatePath = "/epayment/initiate/"
	lookupPath   = "/epayment/lookup/"
)

// Config is the validated Khalti configuration
type Config struct {
	provider.BaseConfig

	PublicKey  string `config:"publicKey" validate:"required"`
	SecretKey  string `config:"secretKey" validate:"required"`
	ReturnURL  string `config:"returnUrl" validate:"omitempty,url"`
	WebsiteURL string `config:"websiteUrl" validate:"omitempty,url"`
	BaseURL    string `config:"baseUrl" validate:"required,url"`
	RefundURL  string `config:"refundUrl" validate:"required,url"`
}

// BuildConfig validates raw settings and applies environment defaults
func BuildConfig(raw provider.RawConfig) (*Config, error) {
	base, err := provider.ResolveBaseConfig(provider.Khalti, raw)
	if err != nil {
		return nil, err
	}

	baseURL, refundURL := sandboxBaseURL, sandboxRefundURL
	if base.IsProduction() {
		baseURL, refundURL = productionBaseURL, productionRefundURL
	}

	cfg := &Config{
		BaseConfig: base,
		PublicKey:  raw.Get("publicKey"),
		SecretKey:  raw.Get("secretKey"),
		ReturnURL:  raw.Get("returnUrl"),
		WebsiteURL: raw.Get("websiteUrl"),
		BaseURL:    provider.TrimTrailingSlash(raw.GetOr("baseUrl", baseURL)),
		RefundURL:  provider.TrimTrailingSlash(raw.GetOr("refundUrl", refundURL)),
	}

	if err := provider.ValidateConfig(provider.Khalti, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

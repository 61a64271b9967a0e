package khalti

import "github.com/mstgnz/nepalpay/provider"

// Register Khalti provider with the gateway registry
func init() {
	provider.Register(provider.Khalti, NewProvider)
}

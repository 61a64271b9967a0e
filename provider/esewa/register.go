package esewa

import "github.com/mstgnz/nepalpay/provider"

// Register eSewa provider with the gateway registry
func init() {
	provider.Register(provider.Esewa, NewProvider)
}

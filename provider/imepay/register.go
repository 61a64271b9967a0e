package imepay

import "github.com/mstgnz/nepalpay/provider"

// Register IME Pay provider with the gateway registry
func init() {
	provider.Register(provider.ImePay, NewProvider)
}

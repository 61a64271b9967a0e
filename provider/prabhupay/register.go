package prabhupay

import "github.com/mstgnz/nepalpay/provider"

// Register Prabhu Pay provider with the gateway registry
func init() {
	provider.Register(provider.PrabhuPay, NewProvider)
}

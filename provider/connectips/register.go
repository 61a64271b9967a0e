package connectips

import "github.com/mstgnz/nepalpay/provider"

// Register ConnectIPS provider with the gateway registry
func init() {
	provider.Register(provider.ConnectIPS, NewProvider)
}

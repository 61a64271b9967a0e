package globalime

import "github.com/mstgnz/nepalpay/provider"

func init() {
	provider.Register(provider.GlobalIME, NewProvider)
}

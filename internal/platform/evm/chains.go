package evm

import "fmt"

// Chain describes a supported network. An empty DefaultRPC means the
// operator must configure an endpoint.
type Chain struct {
	ID           int64
	Name         string
	DefaultRPC   string
	NativeSymbol string
}

// NativeDecimals is the decimal count of every supported native currency.
const NativeDecimals = 18

var chains = map[int64]Chain{
	1:     {ID: 1, Name: "mainnet", NativeSymbol: "ETH"},
	4:     {ID: 4, Name: "rinkeby", NativeSymbol: "ETH"},
	137:   {ID: 137, Name: "polygon", DefaultRPC: "https://polygon-rpc.com", NativeSymbol: "MATIC"},
	250:   {ID: 250, Name: "fantom", DefaultRPC: "https://rpc.ftm.tools", NativeSymbol: "FTM"},
	43114: {ID: 43114, Name: "avalanche", DefaultRPC: "https://api.avax.network/ext/bc/C/rpc", NativeSymbol: "AVAX"},
	80001: {ID: 80001, Name: "mumbai", DefaultRPC: "https://rpc-mumbai.maticvigil.com", NativeSymbol: "MATIC"},
}

// LookupChain returns the chain registered under id.
func LookupChain(id int64) (Chain, error) {
	c, ok := chains[id]
	if !ok {
		return Chain{}, fmt.Errorf("evm: unsupported chain id %d", id)
	}
	return c, nil
}

// Package demiurge is a client for the Demiurge chain node's JSON-RPC
// API. The typed Client answers synchronous queries; the Dispatcher
// layers asynchronous fetch-and-notify semantics on top for UI-style
// consumers.
package demiurge

// JSON-RPC methods exposed by the chain node.
const (
	MethodGetChainInfo       = "cgt_getChainInfo"
	MethodGetBalance         = "cgt_getBalance"
	MethodIsArchon           = "cgt_isArchon"
	MethodGetBlockByHeight   = "cgt_getBlockByHeight"
	MethodSendRawTransaction = "cgt_sendRawTransaction"
	MethodGetNftsByOwner     = "cgt_getNftsByOwner"
	MethodGetListing         = "cgt_getListing"
	MethodGetFabricAsset     = "cgt_getFabricAsset"
)

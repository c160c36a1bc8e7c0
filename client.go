package demiurge

import (
	"context"
	"encoding/json"

	"github.com/ALaustrup/demiurge/httprpc"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// ChainInfo is the node status returned by cgt_getChainInfo.
type ChainInfo struct {
	Height int64
}

// NFT is the metadata of a minted token as reported by
// cgt_getNftsByOwner. Missing is set when the node knows the id but
// has lost the metadata.
type NFT struct {
	ID             uint64 `json:"id"`
	Owner          string `json:"owner"`
	Creator        string `json:"creator"`
	FabricRootHash string `json:"fabric_root_hash"`
	RoyaltyBps     uint32 `json:"royalty_bps"`
	Missing        bool   `json:"missing,omitempty"`
}

type addressParams struct {
	Address string `json:"address"`
}

type heightParams struct {
	Height uint64 `json:"height"`
}

type txParams struct {
	Tx string `json:"tx"`
}

type listingParams struct {
	ListingID uint64 `json:"listing_id"`
}

type fabricAssetParams struct {
	FabricRootHash string `json:"fabric_root_hash"`
}

// Client answers typed queries against a single node. It is stateless
// beyond the shared endpoint configuration and safe for concurrent
// use.
type Client struct {
	caller httprpc.Caller
	log    *zap.SugaredLogger
}

// NewClient validates cfg and creates a client with its own HTTP
// transport.
func NewClient(cfg Config, opts ...httprpc.ClientOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return NewClientWithCaller(httprpc.NewClient(cfg.Endpoint, opts...)), nil
}

// NewClientWithCaller creates a client on top of an existing
// transport.
func NewClientWithCaller(caller httprpc.Caller) *Client {
	return &Client{
		caller: caller,
		log:    zap.S().With("module", "demiurge.client"),
	}
}

// Endpoint returns the URL queries are currently sent to.
func (c *Client) Endpoint() string {
	return c.caller.Endpoint()
}

// SetEndpoint redirects future queries. In-flight queries are
// unaffected.
func (c *Client) SetEndpoint(endpoint string) {
	c.caller.SetEndpoint(endpoint)
}

func (c *Client) Close() error {
	return c.caller.Close()
}

// ChainInfo fetches the current chain status. A missing or non-numeric
// height decodes as 0.
func (c *Client) ChainInfo(ctx context.Context) (ChainInfo, error) {
	result, err := c.caller.Call(ctx, MethodGetChainInfo, nil)
	if err != nil {
		return ChainInfo{}, err
	}

	fields := resultFields(result)
	return ChainInfo{Height: int64Field(fields, "height")}, nil
}

// Balance fetches the CGT balance of an address. The node reports the
// balance either as a number or as a decimal string; malformed values
// decode as 0 rather than failing the call.
func (c *Client) Balance(ctx context.Context, addressHex string) (uint64, error) {
	result, err := c.caller.Call(ctx, MethodGetBalance, addressParams{Address: addressHex})
	if err != nil {
		return 0, err
	}

	fields := resultFields(result)
	return uint64Field(fields, "balance"), nil
}

// IsArchon reports whether an address holds Archon status. A missing
// or non-boolean flag decodes as false.
func (c *Client) IsArchon(ctx context.Context, addressHex string) (bool, error) {
	result, err := c.caller.Call(ctx, MethodIsArchon, addressParams{Address: addressHex})
	if err != nil {
		return false, err
	}

	fields := resultFields(result)
	return boolField(fields, "is_archon"), nil
}

// BlockByHeight fetches a block. The block shape is still settling on
// the node side, so the raw result object is returned.
func (c *Client) BlockByHeight(ctx context.Context, height uint64) (json.RawMessage, error) {
	return c.caller.Call(ctx, MethodGetBlockByHeight, heightParams{Height: height})
}

// SendRawTransaction submits a hex-encoded transaction to the node's
// mempool and reports whether it was accepted.
func (c *Client) SendRawTransaction(ctx context.Context, txHex string) (bool, error) {
	result, err := c.caller.Call(ctx, MethodSendRawTransaction, txParams{Tx: txHex})
	if err != nil {
		return false, err
	}

	fields := resultFields(result)
	return boolField(fields, "accepted"), nil
}

// NftsByOwner fetches the NFTs held by an address.
func (c *Client) NftsByOwner(ctx context.Context, addressHex string) ([]NFT, error) {
	result, err := c.caller.Call(ctx, MethodGetNftsByOwner, addressParams{Address: addressHex})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Nfts []NFT `json:"nfts"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, errors.Wrap(err, "decode nfts")
	}
	return payload.Nfts, nil
}

// Listing fetches a marketplace listing by id. The node returns null
// for unknown listings, which surfaces here as {"value": null}.
func (c *Client) Listing(ctx context.Context, listingID uint64) (json.RawMessage, error) {
	return c.caller.Call(ctx, MethodGetListing, listingParams{ListingID: listingID})
}

// FabricAsset fetches a Fabric asset by its hex-encoded root hash.
func (c *Client) FabricAsset(ctx context.Context, rootHashHex string) (json.RawMessage, error) {
	return c.caller.Call(ctx, MethodGetFabricAsset, fabricAssetParams{FabricRootHash: rootHashHex})
}

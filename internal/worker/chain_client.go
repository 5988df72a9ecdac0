package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bodefavour/web3event/pkg/config"
)

// ErrReceiptNotFound means the transaction is not yet mined or the hash
// is unknown to the node. Callers should retry later.
var ErrReceiptNotFound = errors.New("transaction receipt not found")

// Receipt is the subset of an execution receipt the verifier needs.
type Receipt struct {
	BlockNumber int64
	GasUsed     string
	Succeeded   bool
}

// ChainClient fetches transaction receipts from a blockchain node.
type ChainClient interface {
	GetReceipt(ctx context.Context, txHash string) (*Receipt, error)
}

type rpcChainClient struct {
	url    string
	client *http.Client
}

// NewRPCChainClient talks JSON-RPC to an Ethereum-compatible node.
func NewRPCChainClient(cfg *config.ChainConfig) ChainClient {
	return &rpcChainClient{
		url:    cfg.RPCURL,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

var _ ChainClient = (*rpcChainClient)(nil)

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcReceipt struct {
	BlockNumber string `json:"blockNumber"`
	GasUsed     string `json:"gasUsed"`
	Status      string `json:"status"`
}

type rpcResponse struct {
	Result *rpcReceipt `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *rpcChainClient) GetReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "eth_getTransactionReceipt",
		Params:  []interface{}{txHash},
		ID:      1,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rpc call returned status %d", resp.StatusCode)
	}

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode rpc response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s", out.Error.Code, out.Error.Message)
	}
	if out.Result == nil {
		return nil, ErrReceiptNotFound
	}

	blockNumber, err := parseHexInt(out.Result.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("parse block number: %w", err)
	}
	status, err := parseHexInt(out.Result.Status)
	if err != nil {
		return nil, fmt.Errorf("parse receipt status: %w", err)
	}

	return &Receipt{
		BlockNumber: blockNumber,
		GasUsed:     out.Result.GasUsed,
		Succeeded:   status == 1,
	}, nil
}

func parseHexInt(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimPrefix(s, "0x"), 16, 64)
}

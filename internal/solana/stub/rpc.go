package stub

import (
	"context"
	"sync"

	"solana-buy-alert/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
// Unknown transactions return nil, nil like a real node.
type RPCClient struct {
	mu           sync.Mutex
	transactions map[string]*solana.Transaction
	signatures   map[string][]solana.SignatureInfo

	// SignaturesErr and TransactionErr, when set, are returned by the matching call.
	SignaturesErr  error
	TransactionErr error

	signatureCalls   int
	transactionCalls map[string]int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		transactions:     make(map[string]*solana.Transaction),
		signatures:       make(map[string][]solana.SignatureInfo),
		transactionCalls: make(map[string]int),
	}
}

// GetTransaction retrieves a transaction by signature from the stub store.
func (c *RPCClient) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.transactionCalls[signature]++
	if c.TransactionErr != nil {
		return nil, c.TransactionErr
	}
	return c.transactions[signature], nil
}

// GetSignaturesForAddress returns stored signatures newest first,
// honoring the Before cursor and Limit.
func (c *RPCClient) GetSignaturesForAddress(_ context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.signatureCalls++
	if c.SignaturesErr != nil {
		return nil, c.SignaturesErr
	}

	sigs := c.signatures[address]
	if opts == nil {
		return append([]solana.SignatureInfo(nil), sigs...), nil
	}

	if opts.Before != "" {
		for i, s := range sigs {
			if s.Signature == opts.Before {
				sigs = sigs[i+1:]
				break
			}
		}
	}
	if opts.Limit > 0 && opts.Limit < len(sigs) {
		sigs = sigs[:opts.Limit]
	}

	return append([]solana.SignatureInfo(nil), sigs...), nil
}

// AddTransaction adds a transaction to the stub store.
func (c *RPCClient) AddTransaction(tx *solana.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transactions[tx.Signature] = tx
}

// AddSignatures sets the signatures for an address, newest first.
func (c *RPCClient) AddSignatures(address string, sigs []solana.SignatureInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signatures[address] = sigs
}

// PushSignature prepends a new signature for an address.
func (c *RPCClient) PushSignature(address string, sig solana.SignatureInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signatures[address] = append([]solana.SignatureInfo{sig}, c.signatures[address]...)
}

// SignatureCalls returns how many times GetSignaturesForAddress was called.
func (c *RPCClient) SignatureCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.signatureCalls
}

// TransactionCalls returns how many times a signature was fetched.
func (c *RPCClient) TransactionCalls(signature string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transactionCalls[signature]
}

package solana

import "context"

// RPCClient defines the Solana RPC HTTP methods the monitor relies on.
type RPCClient interface {
	// GetTransaction retrieves a jsonParsed transaction by signature.
	// Returns nil, nil when the node does not know the transaction.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetSignaturesForAddress retrieves signatures for an address, newest first.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)
}

// Transaction represents a Solana transaction decoded with jsonParsed encoding.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime *int64 // Unix timestamp (seconds), nullable
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta contains transaction status metadata.
type TransactionMeta struct {
	Err               interface{}
	Fee               uint64
	PreBalances       []uint64 // lamports, indexed like Message.AccountKeys
	PostBalances      []uint64
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
	InnerInstructions []InnerInstructions
	LogMessages       []string
}

// TransactionMessage contains the parsed transaction message.
type TransactionMessage struct {
	AccountKeys  []string
	Instructions []Instruction
}

// TokenBalance is an SPL token balance entry from pre/postTokenBalances.
type TokenBalance struct {
	AccountIndex  int
	Mint          string
	Owner         string
	UITokenAmount UITokenAmount
}

// UITokenAmount is the decimal-adjusted token amount reported by the node.
type UITokenAmount struct {
	Amount         string
	Decimals       int
	UIAmount       *float64
	UIAmountString string
}

// InnerInstructions holds the CPI instructions emitted by one top-level instruction.
type InnerInstructions struct {
	Index        int
	Instructions []Instruction
}

// Instruction is a (possibly parsed) instruction; only the program id is kept.
type Instruction struct {
	ProgramID string
}

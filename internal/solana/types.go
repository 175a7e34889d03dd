package solana

// Commitment levels accepted by the RPC node.
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

// SignatureInfo from getSignaturesForAddress.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64
	Err       interface{}
}

// SignaturesOpts defines optional parameters for getSignaturesForAddress.
type SignaturesOpts struct {
	Before     string // Start searching backwards from this signature
	Until      string // Search until this signature
	Limit      int    // Maximum number of signatures to return
	Commitment string // Overrides the client commitment when set
}

package domain

// Candidate is a transaction signature returned by the fetcher that has not
// been evaluated yet. The full transaction body is fetched separately.
type Candidate struct {
	Signature string
	Slot      int64
	BlockTime *int64 // Unix seconds (nullable)
	Err       interface{}
}

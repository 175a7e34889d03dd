package ingestion

import (
	"context"
	"io"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"solana-buy-alert/internal/domain"
	"solana-buy-alert/internal/solana"
)

// DefaultPageSize is the number of signatures requested per poll.
const DefaultPageSize = 20

// signatureLength is the decoded size of an ed25519 transaction signature.
const signatureLength = 64

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	Address  string // address whose signatures are polled (the token mint)
	PageSize int    // default DefaultPageSize
	Logger   logrus.FieldLogger
}

// Fetcher polls recent transaction signatures for one address.
// Failures degrade to empty results and are logged, never returned.
type Fetcher struct {
	rpc      solana.RPCClient
	address  string
	pageSize int
	log      logrus.FieldLogger
}

// NewFetcher creates a new Fetcher.
func NewFetcher(rpc solana.RPCClient, opts FetcherOptions) *Fetcher {
	f := &Fetcher{
		rpc:      rpc,
		address:  opts.Address,
		pageSize: opts.PageSize,
		log:      opts.Logger,
	}
	if f.pageSize <= 0 {
		f.pageSize = DefaultPageSize
	}
	if f.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		f.log = l
	}
	f.log = f.log.WithField("component", "fetcher")
	return f
}

// FetchRecent returns up to one page of candidates newest first.
// A non-empty cursor pages strictly older than that signature.
func (f *Fetcher) FetchRecent(ctx context.Context, cursor string) []domain.Candidate {
	opts := &solana.SignaturesOpts{
		Limit:      f.pageSize,
		Before:     cursor,
		Commitment: solana.CommitmentConfirmed,
	}

	sigs, err := f.rpc.GetSignaturesForAddress(ctx, f.address, opts)
	if err != nil {
		f.log.WithError(err).WithField("cursor", cursor).Warn("fetch signatures failed")
		return nil
	}

	candidates := make([]domain.Candidate, 0, len(sigs))
	for _, s := range sigs {
		if !ValidSignature(s.Signature) {
			f.log.WithField("signature", s.Signature).Debug("dropping malformed signature")
			continue
		}
		candidates = append(candidates, domain.Candidate{
			Signature: s.Signature,
			Slot:      s.Slot,
			BlockTime: s.BlockTime,
			Err:       s.Err,
		})
	}
	return candidates
}

// FetchTransaction returns the parsed transaction, or nil when it is unknown
// or the call fails.
func (f *Fetcher) FetchTransaction(ctx context.Context, signature string) *solana.Transaction {
	tx, err := f.rpc.GetTransaction(ctx, signature)
	if err != nil {
		f.log.WithError(err).WithField("signature", signature).Warn("fetch transaction failed")
		return nil
	}
	return tx
}

// ValidSignature reports whether sig is a base58 encoded 64-byte signature.
func ValidSignature(sig string) bool {
	if sig == "" {
		return false
	}
	raw, err := base58.Decode(sig)
	if err != nil {
		return false
	}
	return len(raw) == signatureLength
}

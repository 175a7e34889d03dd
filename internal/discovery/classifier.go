package discovery

import (
	"sort"
	"strings"

	"solana-buy-alert/internal/solana"
)

// Known DEX program IDs.
const (
	// RaydiumAMMV4 is the Raydium AMM v4 program ID.
	RaydiumAMMV4 = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	// JupiterV6 is the Jupiter aggregator v6 program ID.
	JupiterV6 = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"
)

// DEXAliases maps --dex aliases to program IDs.
var DEXAliases = map[string]string{
	"raydium": RaydiumAMMV4,
	"jupiter": JupiterV6,
}

// DefaultPrograms is the allow-list used when none is configured.
var DefaultPrograms = []string{RaydiumAMMV4, JupiterV6}

// ResolvePrograms resolves program IDs from comma separated explicit IDs and
// DEX aliases. Unknown aliases are ignored. The result is sorted.
func ResolvePrograms(programs, dex string) []string {
	result := make(map[string]bool)

	// Add explicit programs
	for _, p := range strings.Split(programs, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			result[p] = true
		}
	}

	// Add programs from DEX aliases
	for _, alias := range strings.Split(dex, ",") {
		alias = strings.TrimSpace(strings.ToLower(alias))
		if programID, ok := DEXAliases[alias]; ok {
			result[programID] = true
		}
	}

	list := make([]string, 0, len(result))
	for p := range result {
		list = append(list, p)
	}
	sort.Strings(list)
	return list
}

// Classifier decides whether a transaction touched an allow-listed DEX program.
// It is a coarse filter: any mention of a program counts.
type Classifier struct {
	programs map[string]struct{}
}

// NewClassifier creates a classifier for the given program IDs.
// An empty list selects DefaultPrograms.
func NewClassifier(programs []string) *Classifier {
	if len(programs) == 0 {
		programs = DefaultPrograms
	}
	c := &Classifier{programs: make(map[string]struct{}, len(programs))}
	for _, p := range programs {
		c.programs[p] = struct{}{}
	}
	return c
}

// Programs returns the allow-list, sorted.
func (c *Classifier) Programs() []string {
	list := make([]string, 0, len(c.programs))
	for p := range c.programs {
		list = append(list, p)
	}
	sort.Strings(list)
	return list
}

// IsDEXSwap reports whether any top-level account key or inner instruction
// program ID is in the allow-list.
func (c *Classifier) IsDEXSwap(tx *solana.Transaction) bool {
	if tx == nil {
		return false
	}

	if tx.Message != nil {
		for _, key := range tx.Message.AccountKeys {
			if c.allowed(key) {
				return true
			}
		}
	}

	if tx.Meta != nil {
		for _, inner := range tx.Meta.InnerInstructions {
			for _, ix := range inner.Instructions {
				if c.allowed(ix.ProgramID) {
					return true
				}
			}
		}
	}

	return false
}

func (c *Classifier) allowed(programID string) bool {
	_, ok := c.programs[programID]
	return ok
}

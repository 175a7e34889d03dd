package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"solana-buy-alert/internal/solana"
)

func TestResolvePrograms(t *testing.T) {
	tests := []struct {
		name     string
		programs string
		dex      string
		want     []string
	}{
		{"empty", "", "", []string{}},
		{"aliases", "", "raydium, Jupiter", []string{RaydiumAMMV4, JupiterV6}},
		{"unknown alias ignored", "", "orca", []string{}},
		{"explicit and alias deduplicated", RaydiumAMMV4 + ",extra", "raydium", []string{RaydiumAMMV4, "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ElementsMatch(t, tt.want, ResolvePrograms(tt.programs, tt.dex))
		})
	}
}

func TestClassifier_IsDEXSwap(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		name string
		tx   *solana.Transaction
		want bool
	}{
		{"nil", nil, false},
		{
			name: "raydium account key",
			tx:   &solana.Transaction{Message: &solana.TransactionMessage{AccountKeys: []string{"wallet", RaydiumAMMV4}}},
			want: true,
		},
		{
			name: "jupiter inner instruction",
			tx: &solana.Transaction{
				Message: &solana.TransactionMessage{AccountKeys: []string{"wallet", "router"}},
				Meta: &solana.TransactionMeta{InnerInstructions: []solana.InnerInstructions{
					{Index: 0, Instructions: []solana.Instruction{{ProgramID: "tokenprogram"}, {ProgramID: JupiterV6}}},
				}},
			},
			want: true,
		},
		{
			name: "plain transfer",
			tx: &solana.Transaction{
				Message: &solana.TransactionMessage{AccountKeys: []string{"wallet", "11111111111111111111111111111111"}},
				Meta:    &solana.TransactionMeta{},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsDEXSwap(tt.tx))
		})
	}
}

func TestClassifier_CustomPrograms(t *testing.T) {
	c := NewClassifier([]string{"customdex"})

	assert.Equal(t, []string{"customdex"}, c.Programs())
	assert.True(t, c.IsDEXSwap(&solana.Transaction{Message: &solana.TransactionMessage{AccountKeys: []string{"customdex"}}}))
	assert.False(t, c.IsDEXSwap(&solana.Transaction{Message: &solana.TransactionMessage{AccountKeys: []string{RaydiumAMMV4}}}))
}

package ledger

import (
	"context"
)

// WalletSummary aggregates a wallet's trade history. NetSOL is realized
// flow (sell revenue minus buy cost); a token counts as a win or loss
// only once it has at least one sell.
type WalletSummary struct {
	WalletID     int64
	Trades       int
	Buys         int
	Sells        int
	BuySOL       float64
	SellSOL      float64
	NetSOL       float64
	TokensTraded int
	Wins         int
	Losses       int
}

// WinRate returns wins over closed positions, or 0 when nothing closed
func (s WalletSummary) WinRate() float64 {
	closed := s.Wins + s.Losses
	if closed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(closed)
}

// SummarizeWallet builds a WalletSummary from the wallet's ledger entries
func SummarizeWallet(ctx context.Context, store Store, walletID int64) (WalletSummary, error) {
	trades, err := store.GetByWallet(ctx, walletID)
	if err != nil {
		return WalletSummary{}, err
	}

	type position struct {
		buySOL  float64
		sellSOL float64
		sells   int
	}

	summary := WalletSummary{WalletID: walletID}
	positions := make(map[string]*position)

	for _, t := range trades {
		summary.Trades++

		pos := positions[t.TokenAddress]
		if pos == nil {
			pos = &position{}
			positions[t.TokenAddress] = pos
		}

		switch t.Side {
		case SideBuy:
			summary.Buys++
			summary.BuySOL += t.AmountSOL
			pos.buySOL += t.AmountSOL
		case SideSell:
			summary.Sells++
			summary.SellSOL += t.AmountSOL
			pos.sellSOL += t.AmountSOL
			pos.sells++
		}
	}

	summary.NetSOL = summary.SellSOL - summary.BuySOL
	summary.TokensTraded = len(positions)

	for _, pos := range positions {
		if pos.sells == 0 {
			continue
		}
		if pos.sellSOL > pos.buySOL {
			summary.Wins++
		} else {
			summary.Losses++
		}
	}

	return summary, nil
}

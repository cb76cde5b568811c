package solana

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/sysprog"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/sirupsen/logrus"
)

// SubmitTransfer builds, signs and submits a system-program SOL transfer.
// The signer is only used for this one transaction and never retained.
func (c *Client) SubmitTransfer(ctx context.Context, signer types.Account, to string, lamports uint64) (string, error) {
	toPubkey := common.PublicKeyFromString(to)

	blockhash, err := c.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: []types.Account{signer},
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        signer.PublicKey,
			RecentBlockhash: blockhash,
			Instructions: []types.Instruction{
				sysprog.Transfer(sysprog.TransferParam{
					From:   signer.PublicKey,
					To:     toPubkey,
					Amount: lamports,
				}),
			},
		}),
	})
	if err != nil {
		return "", fmt.Errorf("failed to build transfer transaction: %w", err)
	}

	txBytes, err := tx.Serialize()
	if err != nil {
		return "", fmt.Errorf("failed to serialize transfer transaction: %w", err)
	}

	signature, err := c.SendTransaction(ctx, base64.StdEncoding.EncodeToString(txBytes))
	if err != nil {
		return "", err
	}

	c.logger.WithFields(logrus.Fields{
		"from":      signer.PublicKey.String(),
		"to":        to,
		"lamports":  lamports,
		"signature": signature,
	}).Info("Transfer submitted")

	return signature, nil
}

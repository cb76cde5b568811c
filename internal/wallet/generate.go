package wallet

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
	"github.com/tyler-smith/go-bip39"
)

// GeneratedWallet is the result of a fresh wallet generation. The mnemonic
// is returned once for backup and never stored.
type GeneratedWallet struct {
	Address      string
	Mnemonic     string
	EncryptedKey string
}

// Generate derives a new wallet from a BIP-39 mnemonic and seals its private
// key under the password.
func Generate(password string) (*GeneratedWallet, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return nil, fmt.Errorf("failed to generate entropy: %w", err)
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("failed to generate mnemonic: %w", err)
	}

	return fromMnemonic(mnemonic, password)
}

// Recover rebuilds a wallet from an existing mnemonic
func Recover(mnemonic, password string) (*GeneratedWallet, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}
	return fromMnemonic(mnemonic, password)
}

func fromMnemonic(mnemonic, password string) (*GeneratedWallet, error) {
	seed := bip39.NewSeed(mnemonic, "")

	account, err := types.AccountFromSeed(seed[:32])
	if err != nil {
		return nil, fmt.Errorf("failed to derive account: %w", err)
	}

	encrypted, err := EncryptKey(base58.Encode(account.PrivateKey), password)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt private key: %w", err)
	}

	return &GeneratedWallet{
		Address:      account.PublicKey.String(),
		Mnemonic:     mnemonic,
		EncryptedKey: encrypted,
	}, nil
}

// GenerateGroup creates count wallets into the directory and registers them
// as one group.
func GenerateGroup(dir *MemoryDirectory, name, password string, count int) (WalletGroup, []string, error) {
	if count <= 0 {
		return WalletGroup{}, nil, fmt.Errorf("count must be positive")
	}

	ids := make([]int64, 0, count)
	mnemonics := make([]string, 0, count)

	for i := 0; i < count; i++ {
		generated, err := Generate(password)
		if err != nil {
			return WalletGroup{}, nil, fmt.Errorf("failed to generate wallet %d: %w", i+1, err)
		}

		ref := dir.AddWallet(generated.Address, fmt.Sprintf("%s-%d", name, i+1), generated.EncryptedKey)
		ids = append(ids, ref.ID)
		mnemonics = append(mnemonics, generated.Mnemonic)
	}

	group, err := dir.AddGroup(name, ids)
	if err != nil {
		return WalletGroup{}, nil, err
	}

	return group, mnemonics, nil
}

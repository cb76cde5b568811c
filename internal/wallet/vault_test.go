package wallet

import (
	"testing"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const password = "hunter2hunter2"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	account := types.NewAccount()
	privateKey := base58.Encode(account.PrivateKey)

	encrypted, err := EncryptKey(privateKey, password)
	require.NoError(t, err)
	assert.NotContains(t, encrypted, privateKey)

	decrypted, err := DecryptKey(encrypted, password)
	require.NoError(t, err)
	assert.Equal(t, privateKey, decrypted)
}

func TestDecryptWithWrongPassword(t *testing.T) {
	account := types.NewAccount()
	encrypted, err := EncryptKey(base58.Encode(account.PrivateKey), password)
	require.NoError(t, err)

	_, err = DecryptKey(encrypted, "wrong password")
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestEncryptProducesUniqueCiphertexts(t *testing.T) {
	account := types.NewAccount()
	privateKey := base58.Encode(account.PrivateKey)

	first, err := EncryptKey(privateKey, password)
	require.NoError(t, err)
	second, err := EncryptKey(privateKey, password)
	require.NoError(t, err)

	// Fresh salt and nonce per encryption
	assert.NotEqual(t, first, second)
}

func TestVaultDecryptSigner(t *testing.T) {
	dir := NewMemoryDirectory()
	vault := NewEncryptedVault(dir)

	account := types.NewAccount()
	encrypted, err := EncryptKey(base58.Encode(account.PrivateKey), password)
	require.NoError(t, err)
	ref := dir.AddWallet(account.PublicKey.String(), "test", encrypted)

	signer, err := vault.DecryptSigner(ref.ID, password)
	require.NoError(t, err)
	assert.Equal(t, account.PublicKey, signer.PublicKey)

	_, err = vault.DecryptSigner(ref.ID, "wrong password")
	assert.ErrorIs(t, err, ErrAuthentication)

	_, err = vault.DecryptSigner(999, password)
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestGenerateAndRecover(t *testing.T) {
	generated, err := Generate(password)
	require.NoError(t, err)
	assert.NotEmpty(t, generated.Address)
	assert.NotEmpty(t, generated.Mnemonic)

	// The mnemonic deterministically recovers the same wallet
	recovered, err := Recover(generated.Mnemonic, password)
	require.NoError(t, err)
	assert.Equal(t, generated.Address, recovered.Address)

	// And the encrypted key unlocks to a signer for that address
	key, err := DecryptKey(recovered.EncryptedKey, password)
	require.NoError(t, err)
	signer, err := types.AccountFromBase58(key)
	require.NoError(t, err)
	assert.Equal(t, generated.Address, signer.PublicKey.String())
}

func TestRecoverRejectsInvalidMnemonic(t *testing.T) {
	_, err := Recover("not a valid mnemonic phrase at all", password)
	assert.Error(t, err)
}

func TestGenerateGroup(t *testing.T) {
	dir := NewMemoryDirectory()

	group, mnemonics, err := GenerateGroup(dir, "squad", password, 3)
	require.NoError(t, err)

	assert.Equal(t, "squad", group.Name)
	require.Len(t, group.Wallets, 3)
	require.Len(t, mnemonics, 3)

	// Every generated wallet is registered and unlockable
	vault := NewEncryptedVault(dir)
	for i, ref := range group.Wallets {
		assert.Equal(t, i+1, group.Index(ref.ID))

		signer, err := vault.DecryptSigner(ref.ID, password)
		require.NoError(t, err)
		assert.Equal(t, ref.Address, signer.PublicKey.String())
	}

	assert.Zero(t, group.Index(999))
}

func TestDirectoryGroupLookup(t *testing.T) {
	dir := NewMemoryDirectory()
	a := dir.AddWallet("AddrA", "a", "enc-a")
	b := dir.AddWallet("AddrB", "b", "enc-b")

	group, err := dir.AddGroup("pair", []int64{a.ID, b.ID})
	require.NoError(t, err)

	fetched, err := dir.Group(group.ID)
	require.NoError(t, err)
	assert.Equal(t, group.Wallets, fetched.Wallets)

	_, err = dir.Group(999)
	assert.ErrorIs(t, err, ErrGroupNotFound)

	_, err = dir.AddGroup("bad", []int64{999})
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

package wallet

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Package sentinel errors, checked with errors.Is by callers.
var (
	ErrWalletNotFound = errors.New("wallet not found")
	ErrGroupNotFound  = errors.New("wallet group not found")
	ErrAuthentication = errors.New("invalid decryption password")
)

// WalletRef identifies a wallet without any signing capability. Signers are
// obtained on demand from the KeyVault and never cached.
type WalletRef struct {
	ID      int64
	Address string
	Label   string
}

// WalletGroup is an ordered set of wallets with a stable 1-based index.
type WalletGroup struct {
	ID      int64
	Name    string
	Wallets []WalletRef
}

// Index returns the 1-based position of a wallet in the group, 0 if absent
func (g WalletGroup) Index(walletID int64) int {
	for i, w := range g.Wallets {
		if w.ID == walletID {
			return i + 1
		}
	}
	return 0
}

// Directory resolves wallet and group references
type Directory interface {
	Wallet(id int64) (WalletRef, error)
	Group(id int64) (WalletGroup, error)
}

// SecretStore provides encrypted private keys for the vault
type SecretStore interface {
	EncryptedKey(walletID int64) (string, error)
}

// MemoryDirectory is an in-memory Directory and SecretStore implementation
type MemoryDirectory struct {
	mu      sync.RWMutex
	wallets map[int64]walletRecord
	groups  map[int64]WalletGroup
	nextID  int64
}

type walletRecord struct {
	ref          WalletRef
	encryptedKey string
}

// NewMemoryDirectory creates an empty directory
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		wallets: make(map[int64]walletRecord),
		groups:  make(map[int64]WalletGroup),
		nextID:  1,
	}
}

// AddWallet registers a wallet with its encrypted key and returns its ref
func (d *MemoryDirectory) AddWallet(address, label, encryptedKey string) WalletRef {
	d.mu.Lock()
	defer d.mu.Unlock()

	ref := WalletRef{
		ID:      d.nextID,
		Address: address,
		Label:   label,
	}
	d.nextID++

	d.wallets[ref.ID] = walletRecord{ref: ref, encryptedKey: encryptedKey}
	return ref
}

// AddGroup registers a group over already-registered wallets
func (d *MemoryDirectory) AddGroup(name string, walletIDs []int64) (WalletGroup, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	group := WalletGroup{
		ID:   d.nextID,
		Name: name,
	}

	for _, id := range walletIDs {
		rec, ok := d.wallets[id]
		if !ok {
			return WalletGroup{}, fmt.Errorf("wallet %d: %w", id, ErrWalletNotFound)
		}
		group.Wallets = append(group.Wallets, rec.ref)
	}

	d.nextID++
	d.groups[group.ID] = group
	return group, nil
}

// Wallet returns the ref for a wallet id
func (d *MemoryDirectory) Wallet(id int64) (WalletRef, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, ok := d.wallets[id]
	if !ok {
		return WalletRef{}, fmt.Errorf("wallet %d: %w", id, ErrWalletNotFound)
	}
	return rec.ref, nil
}

// Group returns a group by id
func (d *MemoryDirectory) Group(id int64) (WalletGroup, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	group, ok := d.groups[id]
	if !ok {
		return WalletGroup{}, fmt.Errorf("group %d: %w", id, ErrGroupNotFound)
	}

	// Copy so callers cannot mutate the stored order
	out := group
	out.Wallets = append([]WalletRef(nil), group.Wallets...)
	return out, nil
}

// EncryptedKey returns the stored encrypted private key for a wallet
func (d *MemoryDirectory) EncryptedKey(walletID int64) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, ok := d.wallets[walletID]
	if !ok {
		return "", fmt.Errorf("wallet %d: %w", walletID, ErrWalletNotFound)
	}
	return rec.encryptedKey, nil
}

// ListWallets returns all registered wallets ordered by id
func (d *MemoryDirectory) ListWallets() []WalletRef {
	d.mu.RLock()
	defer d.mu.RUnlock()

	refs := make([]WalletRef, 0, len(d.wallets))
	for _, rec := range d.wallets {
		refs = append(refs, rec.ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs
}

var (
	_ Directory   = (*MemoryDirectory)(nil)
	_ SecretStore = (*MemoryDirectory)(nil)
)

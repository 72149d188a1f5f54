package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/scrypt"
)

// Keystore is the on-disk encrypted key format: scrypt-derived key,
// AES-256-CTR ciphertext, HMAC-SHA256 over derivation key and ciphertext.
type Keystore struct {
	Version int    `json:"version"`
	Address string `json:"address"`
	Crypto  Crypto `json:"crypto"`
}

// Crypto is the encryption envelope inside a keystore file.
type Crypto struct {
	Cipher       string       `json:"cipher"`
	CipherText   string       `json:"ciphertext"`
	CipherParams CipherParams `json:"cipherparams"`
	KDF          string       `json:"kdf"`
	KDFParams    KDFParams    `json:"kdfparams"`
	MAC          string       `json:"mac"`
}

// CipherParams carries the AES initialization vector.
type CipherParams struct {
	IV string `json:"iv"`
}

// KDFParams carries the scrypt parameters.
type KDFParams struct {
	N     int    `json:"n"`
	R     int    `json:"r"`
	P     int    `json:"p"`
	DKLen int    `json:"dklen"`
	Salt  string `json:"salt"`
}

const (
	keystoreVersion = 1
	scryptN         = 1 << 15
	scryptR         = 8
	scryptP         = 1
	scryptDKLen     = 32
)

// KeystoreManager saves and loads encrypted wallets under one directory,
// one file per address.
type KeystoreManager struct {
	dir string
}

// NewKeystoreManager creates the keystore directory if needed.
func NewKeystoreManager(dir string) (*KeystoreManager, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &KeystoreManager{dir: dir}, nil
}

// Save encrypts the wallet's seed under password and writes
// <dir>/<bech32>.json, returning the file path.
func (km *KeystoreManager) Save(w Wallet, password string) (string, error) {
	seed, err := hex.DecodeString(w.PrivateKeyHex())
	if err != nil {
		return "", fmt.Errorf("export seed: %w", err)
	}

	salt := make([]byte, 32)
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptDKLen)
	if err != nil {
		return "", fmt.Errorf("derive key: %w", err)
	}

	ciphertext, err := runCTR(key, iv, seed)
	if err != nil {
		return "", fmt.Errorf("encrypt seed: %w", err)
	}

	ks := &Keystore{
		Version: keystoreVersion,
		Address: w.Address().Bech32(),
		Crypto: Crypto{
			Cipher:       "aes-256-ctr",
			CipherText:   hex.EncodeToString(ciphertext),
			CipherParams: CipherParams{IV: hex.EncodeToString(iv)},
			KDF:          "scrypt",
			KDFParams: KDFParams{
				N:     scryptN,
				R:     scryptR,
				P:     scryptP,
				DKLen: scryptDKLen,
				Salt:  hex.EncodeToString(salt),
			},
			MAC: hex.EncodeToString(computeMAC(key, ciphertext)),
		},
	}

	path := filepath.Join(km.dir, ks.Address+".json")
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return "", fmt.Errorf("create keystore file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ks); err != nil {
		return "", fmt.Errorf("encode keystore: %w", err)
	}
	return path, nil
}

// Load decrypts the keystore file for the given bech32 address.
func (km *KeystoreManager) Load(bech32Addr, password string) (Wallet, error) {
	data, err := os.ReadFile(filepath.Join(km.dir, bech32Addr+".json"))
	if err != nil {
		return nil, fmt.Errorf("read keystore file: %w", err)
	}

	var ks Keystore
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, fmt.Errorf("parse keystore: %w", err)
	}
	if ks.Crypto.KDF != "scrypt" {
		return nil, fmt.Errorf("unsupported KDF %q", ks.Crypto.KDF)
	}

	salt, err := hex.DecodeString(ks.Crypto.KDFParams.Salt)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}
	iv, err := hex.DecodeString(ks.Crypto.CipherParams.IV)
	if err != nil {
		return nil, fmt.Errorf("decode iv: %w", err)
	}
	ciphertext, err := hex.DecodeString(ks.Crypto.CipherText)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	mac, err := hex.DecodeString(ks.Crypto.MAC)
	if err != nil {
		return nil, fmt.Errorf("decode mac: %w", err)
	}

	p := ks.Crypto.KDFParams
	key, err := scrypt.Key([]byte(password), salt, p.N, p.R, p.P, p.DKLen)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	if !hmac.Equal(mac, computeMAC(key, ciphertext)) {
		return nil, fmt.Errorf("wrong password or corrupted keystore")
	}

	seed, err := runCTR(key, iv, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decrypt seed: %w", err)
	}
	return NewWalletFromSeed(seed)
}

// runCTR applies AES-CTR, which is its own inverse.
func runCTR(key, iv, in []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(in))
	cipher.NewCTR(block, iv).XORKeyStream(out, in)
	return out, nil
}

func computeMAC(key, ciphertext []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(ciphertext)
	return mac.Sum(nil)
}

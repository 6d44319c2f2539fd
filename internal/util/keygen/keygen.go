package keygen

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"encoding/pem"
	"fmt"

	"golang.org/x/crypto/ssh"
)

// Algorithm selects the key type.
type Algorithm string

// Supported algorithms.
const (
	Ed25519 Algorithm = "ed25519"
	RSA     Algorithm = "rsa"
)

// rsaBits is the RSA modulus size used by Generate.
const rsaBits = 4096

// KeyPair holds a key pair in ready-to-use formats.
type KeyPair struct {
	// PrivateKey is the PEM-encoded OpenSSH private key.
	PrivateKey []byte
	// PublicKey is the public key in authorized_keys format.
	PublicKey []byte
}

// FileName returns the conventional file name of a private key, such as
// id_ed25519.
func (a Algorithm) FileName() string {
	return "id_" + string(a)
}

// Generate creates a key pair of the given algorithm. comment ends up in
// the private key and after the public key.
func Generate(alg Algorithm, comment string) (*KeyPair, error) {
	switch alg {
	case Ed25519:
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
		}
		return encode(priv, comment)
	case RSA:
		return GenerateRSAKeyPair(rsaBits, comment)
	}
	return nil, fmt.Errorf("unsupported key algorithm %q", alg)
}

// GenerateRSAKeyPair generates an RSA key pair with the given modulus size.
func GenerateRSAKeyPair(bits int, comment string) (*KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA private key: %w", err)
	}
	if err := priv.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate RSA private key: %w", err)
	}
	return encode(priv, comment)
}

func encode(priv crypto.Signer, comment string) (*KeyPair, error) {
	block, err := ssh.MarshalPrivateKey(priv, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to encode private key: %w", err)
	}
	pub, err := ssh.NewPublicKey(priv.Public())
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH public key: %w", err)
	}

	authorized := ssh.MarshalAuthorizedKey(pub)
	if comment != "" {
		// MarshalAuthorizedKey ends with a newline.
		authorized = append(authorized[:len(authorized)-1], []byte(" "+comment+"\n")...)
	}
	return &KeyPair{
		PrivateKey: pem.EncodeToMemory(block),
		PublicKey:  authorized,
	}, nil
}

// Package password wraps one-way password hashing so room handling code
// never sees plaintext storage concerns.
package password

import "golang.org/x/crypto/bcrypt"

// Verifier derives and checks one-way password verifiers.
type Verifier interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

type BcryptVerifier struct {
	cost int
}

func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{cost: bcrypt.DefaultCost}
}

func (v *BcryptVerifier) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), v.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (v *BcryptVerifier) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

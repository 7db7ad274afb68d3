package password

import "golang.org/x/crypto/bcrypt"

// Hasher wraps bcrypt behind the narrow encrypt/verify surface the services
// consume. The configured salt is mixed in on top of bcrypt's own.
type Hasher struct{}

func NewHasher() *Hasher {
	return &Hasher{}
}

func (h *Hasher) Encrypt(content, salt string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(content+salt), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *Hasher) Verify(content, hash, salt string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(content+salt)) == nil
}

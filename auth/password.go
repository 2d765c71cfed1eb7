// Package auth hashes passwords and issues and verifies bearer tokens.
package auth

import "golang.org/x/crypto/bcrypt"

// dummyHash is compared against when the user is unknown so lookups and
// wrong passwords take the same time.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("vociary-dummy-password"), bcrypt.DefaultCost)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// BurnPasswordCheck spends the cost of one bcrypt comparison and always fails.
func BurnPasswordCheck(password string) bool {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
	return false
}

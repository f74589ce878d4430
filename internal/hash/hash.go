package hash

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor used for every stored credential.
const Cost = 10

func HashPassword(password string) (string, error) {
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", err
	}

	return string(hashbytes), nil
}

// CheckPassword reports whether password matches hash. Empty input and
// malformed hashes never match.
func CheckPassword(hash, password string) bool {
	if hash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var dummy = sync.OnceValue(func() string {
	h, err := HashPassword("docshelf-unknown-account")
	if err != nil {
		panic(err)
	}
	return h
})

// Dummy returns a valid cost-Cost hash that no real account uses. Comparing
// against it when an account is missing keeps login timing uniform.
func Dummy() string { return dummy() }

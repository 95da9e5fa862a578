package export

import (
	"encoding/csv"
	"io"
)

// Credential pairs a freshly imported account with its generated password.
// This is the only place the plaintext ever appears; only the hash is stored.
type Credential struct {
	Username string
	Name     string
	Password string
}

// WriteCredentialsCSV streams the generated credentials as CSV.
func WriteCredentialsCSV(dst io.Writer, creds []Credential) error {
	w := csv.NewWriter(dst)
	if err := w.Write([]string{"username", "name", "password"}); err != nil {
		return err
	}
	for _, c := range creds {
		if err := w.Write([]string{c.Username, c.Name, c.Password}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Package importer parses the bulk CSV uploads. Parsing is row-tolerant:
// a malformed row is reported and skipped, the rest of the file still
// imports.
package importer

import (
	"crypto/rand"
	"encoding/csv"
	"fmt"
	"io"
	"math/big"
	"strings"
)

type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// UserRecord is one parsed user row with its generated password. Expected
// columns: username, name, email, class, branch, role.
type UserRecord struct {
	Line        int
	Username    string
	Name        string
	Email       string
	ClassName   string
	StudyBranch string
	Role        string // student | teacher | admin
	Password    string
}

const passwordLen = 12

const passwordAlphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// ParseUsers reads the users CSV (header row required) and attaches a
// random password to every valid row.
func ParseUsers(r io.Reader) ([]UserRecord, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	var (
		records []UserRecord
		rowErrs []RowError
		line    = 1
	)
	for {
		line++
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		if len(row) < 6 {
			rowErrs = append(rowErrs, RowError{Line: line, Err: fmt.Errorf("expected 6 columns, got %d", len(row))})
			continue
		}

		rec := UserRecord{
			Line:        line,
			Username:    strings.TrimSpace(row[0]),
			Name:        strings.TrimSpace(row[1]),
			Email:       strings.TrimSpace(row[2]),
			ClassName:   strings.TrimSpace(row[3]),
			StudyBranch: strings.ToUpper(strings.TrimSpace(row[4])),
			Role:        strings.ToLower(strings.TrimSpace(row[5])),
		}
		if rec.Username == "" || rec.Name == "" {
			rowErrs = append(rowErrs, RowError{Line: line, Err: fmt.Errorf("username and name are required")})
			continue
		}
		switch rec.Role {
		case "student", "teacher", "admin":
		default:
			rowErrs = append(rowErrs, RowError{Line: line, Err: fmt.Errorf("unknown role %q", rec.Role)})
			continue
		}
		if rec.StudyBranch != "" && rec.StudyBranch != "E" && rec.StudyBranch != "IT" {
			rowErrs = append(rowErrs, RowError{Line: line, Err: fmt.Errorf("unknown branch %q", rec.StudyBranch)})
			continue
		}

		pw, err := randomPassword(passwordLen)
		if err != nil {
			return nil, nil, fmt.Errorf("generate password: %w", err)
		}
		rec.Password = pw
		records = append(records, rec)
	}
	return records, rowErrs, nil
}

func randomPassword(n int) (string, error) {
	max := big.NewInt(int64(len(passwordAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = passwordAlphabet[idx.Int64()]
	}
	return string(b), nil
}

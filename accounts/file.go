package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

// FilePersister stores the account list as an indented JSON file.
type FilePersister struct {
	path string
}

// NewFilePersister returns a persister for the file at path.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

// Path returns the backing file path.
func (p *FilePersister) Path() string {
	return p.path
}

// Load reads the account list. A missing file is an empty list.
func (p *FilePersister) Load(_ context.Context) ([]Account, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Account{}, nil
		}
		return nil, oops.Code("ACCOUNT_STORE_READ_FAILED").
			With("path", p.path).
			Wrap(err)
	}
	if len(data) == 0 {
		return []Account{}, nil
	}

	var list []Account
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, oops.Code("ACCOUNT_STORE_READ_FAILED").
			With("path", p.path).
			Wrapf(err, "decode account list")
	}
	return list, nil
}

// Save writes the account list through a temp file and rename.
func (p *FilePersister) Save(_ context.Context, list []Account) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return oops.Code("ACCOUNT_STORE_WRITE_FAILED").Wrapf(err, "encode account list")
	}

	dir := filepath.Dir(p.path)
	tmp, err := os.CreateTemp(dir, ".users-*.json")
	if err != nil {
		return oops.Code("ACCOUNT_STORE_WRITE_FAILED").
			With("path", p.path).
			Wrap(err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return oops.Code("ACCOUNT_STORE_WRITE_FAILED").
			With("path", p.path).
			Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return oops.Code("ACCOUNT_STORE_WRITE_FAILED").
			With("path", p.path).
			Wrap(err)
	}
	if err := os.Rename(tmpName, p.path); err != nil {
		_ = os.Remove(tmpName)
		return oops.Code("ACCOUNT_STORE_WRITE_FAILED").
			With("path", p.path).
			Wrap(err)
	}
	return nil
}

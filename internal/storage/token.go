package storage

import (
	"errors"

	"github.com/julianstephens/drivewise/internal/constants"
)

// TokenStore keeps the API token in device storage, for hosts without an OS keyring.
type TokenStore struct {
	p Provider
}

func NewTokenStore(p Provider) *TokenStore {
	return &TokenStore{p: p}
}

func (s *TokenStore) Get() (string, error) {
	token, _, err := s.p.GetItem(constants.StorageKeyToken)
	return token, err
}

func (s *TokenStore) Set(token string) error {
	if token == "" {
		return errors.New("token cannot be empty")
	}
	return s.p.SetItem(constants.StorageKeyToken, token)
}

func (s *TokenStore) Clear() error {
	return s.p.RemoveItem(constants.StorageKeyToken)
}

func (s *TokenStore) IsAuthenticated() bool {
	token, err := s.Get()
	return err == nil && token != ""
}

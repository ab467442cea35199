package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrProfileCorrupt is returned when a stored profile is not valid JSON.
	ErrProfileCorrupt = errors.New("session profile corrupt")
	// ErrProfileIncomplete is returned when a stored profile has no username.
	ErrProfileIncomplete = errors.New("session profile incomplete")
	// ErrUsersCorrupt is returned when the stored user table cannot be parsed.
	ErrUsersCorrupt = errors.New("user table corrupt")
	// ErrRememberedCorrupt is returned when a remembered credential cannot be parsed.
	ErrRememberedCorrupt = errors.New("remembered credential corrupt")
)

// EncodeProfile renders p for the userInfo key.
func EncodeProfile(p Profile) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeProfile parses a stored profile. Unknown fields are ignored so
// older and newer profile shapes keep decoding.
func DecodeProfile(raw string) (Profile, error) {
	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrProfileCorrupt, err)
	}
	if p.Username == "" {
		return Profile{}, ErrProfileIncomplete
	}
	return p, nil
}

// EncodeUsers renders the full user table. A nil table encodes as "[]".
func EncodeUsers(users []UserRecord) (string, error) {
	if users == nil {
		users = []UserRecord{}
	}
	data, err := json.Marshal(users)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeUsers parses the user table. An empty value is an empty table.
func DecodeUsers(raw string) ([]UserRecord, error) {
	if raw == "" {
		return []UserRecord{}, nil
	}
	var users []UserRecord
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsersCorrupt, err)
	}
	if users == nil {
		users = []UserRecord{}
	}
	return users, nil
}

// EncodeRemembered renders c for the rememberedUser key.
func EncodeRemembered(c RememberedCredential) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeRemembered parses a remembered credential.
func DecodeRemembered(raw string) (RememberedCredential, error) {
	var c RememberedCredential
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return RememberedCredential{}, fmt.Errorf("%w: %v", ErrRememberedCorrupt, err)
	}
	return c, nil
}

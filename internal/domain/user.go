// Package domain contains entities without logic, just meta-data
package domain

import "errors"

const MaxUserIDLen = 36

var (
	ErrUserIDEmpty   = errors.New("user id empty")
	ErrUserIDTooLong = errors.New("user id too long")
)

type UserID string

// Gender is a self-declared attribute used only by the matching filter.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
	GenderAny    Gender = "any"
)

// MatchAttributes travels with a find-match request. All fields optional;
// an empty preference accepts anyone.
type MatchAttributes struct {
	Gender          Gender `json:"gender,omitempty"`
	PreferredGender Gender `json:"preferredGender,omitempty"`
	Country         string `json:"country,omitempty"`
}

// Accepts reports whether this side's stated preference admits the other
// side's stated gender.
func (a MatchAttributes) Accepts(other MatchAttributes) bool {
	if a.PreferredGender == "" || a.PreferredGender == GenderAny {
		return true
	}
	return a.PreferredGender == other.Gender
}

// Compatible is the symmetric pairing predicate: both sides must accept
// each other.
func Compatible(a, b MatchAttributes) bool {
	return a.Accepts(b) && b.Accepts(a)
}

func ValidateUserID(id UserID) error {
	if len(id) == 0 {
		return ErrUserIDEmpty
	}
	if len(id) > MaxUserIDLen {
		return ErrUserIDTooLong
	}
	return nil
}

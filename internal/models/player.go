package models

// PlayerSnapshot is the per-connection copy of a player's stored record.
// It is duplicated from the users table at pairing time and only written
// back through the outcome processor.
type PlayerSnapshot struct {
	Username  string `json:"username"`
	RankScore int    `json:"rankScore"`
}

// RatingRecord is the slice of the stored user record the duel core cares
// about: a username and its current rank score.
type RatingRecord struct {
	Username  string `json:"username"`
	RankScore int    `json:"rankScore"`
}

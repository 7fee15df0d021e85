package models

import "github.com/google/uuid"

// User is a registered account. Playing never requires one; an account
// only accumulates stats across games for players who want that.
type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Password string    `json:"password,omitempty"`
	Username string    `json:"username"`

	GamesPlayed  int     `json:"games_played"`
	GamesWon     int     `json:"games_won"`
	WordsGuessed int     `json:"words_guessed"`
	BestWPM      float64 `json:"best_wpm"`
}

package models

import "github.com/google/uuid"

// ensureID assigns a fresh UUID when the caller did not provide one. Postgres
// defaults are not relied upon so the same models work on SQLite.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

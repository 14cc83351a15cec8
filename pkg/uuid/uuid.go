// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid generates the time-ordered identifiers used as account keys.

Version 7 values sort by creation time, which keeps the users.account
primary key index append-only.
*/
package uuid

import "github.com/google/uuid"

// New generates a new UUIDv7 string.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		// entropy failure is not recoverable
		panic("uuid: failed to generate v7: " + err.Error())
	}
	return id.String()
}

// Valid reports whether s parses as any UUID version.
func Valid(s string) bool {
	return uuid.Validate(s) == nil
}

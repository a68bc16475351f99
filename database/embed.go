package database

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migrations returns the console's migration set, rooted at the migrations dir.
func Migrations() fs.FS {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		// The directory is part of the binary; a failure here is a build mistake.
		panic(err)
	}
	return sub
}

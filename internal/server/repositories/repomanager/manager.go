package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/audiences"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/passwordhistory"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code runs
// against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Audiences(db dbx.DBTX) audiences.Repository
	PasswordHistory(db dbx.DBTX) passwordhistory.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}

package mongodb

import (
	"context"

	"oustaa/internal/repositories/interfaces"
	"oustaa/pkg/database"

	"go.mongodb.org/mongo-driver/mongo"
)

type transactor struct {
	db *database.MongoDB
}

func NewTransactor(db *database.MongoDB) interfaces.Transactor {
	return &transactor{db: db}
}

func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	var hooks *interfaces.CommitHooks
	_, err := t.db.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		var txCtx context.Context
		txCtx, hooks = interfaces.WithCommitHooks(sessCtx)
		return nil, fn(txCtx)
	})
	if err != nil {
		return err
	}

	hooks.Run(ctx)
	return nil
}

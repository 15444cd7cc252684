package mongodb

import (
	"context"
	"errors"
	"fmt"

	"oustaa/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/mongo"
)

// translateError maps driver errors onto repository sentinels.
func translateError(err error, action string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return interfaces.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("failed to %s: %w", action, interfaces.ErrDuplicate)
	default:
		return fmt.Errorf("failed to %s: %w", action, err)
	}
}

func decodeAll[T any](ctx context.Context, cursor *mongo.Cursor) ([]*T, error) {
	defer cursor.Close(ctx)

	items := make([]*T, 0)
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		items = append(items, &item)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return items, nil
}

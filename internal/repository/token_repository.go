package repository

import (
	"context"
)

// The refresh-token slot lives in users.refresh_token_hash: one live token
// per user, overwritten on rotation and emptied on logout.

// SetRefreshToken overwrites the slot unconditionally.
func (r *mysqlUsers) SetRefreshToken(ctx context.Context, id, hash string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=? WHERE id=?",
		hash, id)
	if err != nil {
		return sqlErr("set refresh token", err)
	}
	if err := affected(res); err != nil {
		// zero rows also happens when the slot already held hash
		if _, gerr := r.GetByID(ctx, id); gerr != nil {
			return gerr
		}
	}
	return nil
}

// SwapRefreshToken replaces the slot only while it still holds oldHash.
func (r *mysqlUsers) SwapRefreshToken(ctx context.Context, id, oldHash, newHash string) error {
	if oldHash == "" {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=? WHERE id=? AND refresh_token_hash=?",
		newHash, id, oldHash)
	if err != nil {
		return sqlErr("swap refresh token", err)
	}
	if err := affected(res); err != nil {
		return ErrConflict
	}
	return nil
}

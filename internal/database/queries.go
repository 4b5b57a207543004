package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
)

const accountColumns = "id, username, email, role, age, gender, interests, relationship_intent, location, avatar, banned, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (User, error) {
	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.Role,
		&u.Age,
		&u.Gender,
		&u.Interests,
		&u.RelationshipIntent,
		&u.Location,
		&u.Avatar,
		&u.Banned,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func (db *PgRepository) CreateAccount(ctx context.Context, params CreateAccountParams) (User, error) {
	now := time.Now().UTC()
	row := db.conn.QueryRowContext(
		ctx,
		"INSERT INTO users (username, email, password_hash, age, gender, relationship_intent, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING "+accountColumns,
		params.Username,
		params.EmailAddress,
		params.PasswordHash,
		params.Age,
		params.Gender,
		params.RelationshipIntent,
		now,
		now,
	)

	u, err := scanAccount(row)
	return u, translateError(err)
}

func (db *PgRepository) GetAccountById(ctx context.Context, id int) (User, error) {
	row := db.conn.QueryRowContext(
		ctx,
		"SELECT "+accountColumns+" FROM users WHERE id = $1 LIMIT 1",
		id,
	)

	u, err := scanAccount(row)
	return u, translateError(err)
}

func (db *PgRepository) GetAccountByEmail(ctx context.Context, email string) (User, error) {
	row := db.conn.QueryRowContext(
		ctx,
		"SELECT "+accountColumns+", password_hash FROM users WHERE email = $1 LIMIT 1",
		email,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.Role,
		&u.Age,
		&u.Gender,
		&u.Interests,
		&u.RelationshipIntent,
		&u.Location,
		&u.Avatar,
		&u.Banned,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.PasswordHash,
	)

	return u, translateError(err)
}

func (db *PgRepository) UpdateProfile(ctx context.Context, params UpdateProfileParams) (User, error) {
	row := db.conn.QueryRowContext(
		ctx,
		"UPDATE users SET age = $2, gender = $3, interests = $4, relationship_intent = $5, location = $6, avatar = $7, updated_at = $8 "+
			"WHERE id = $1 RETURNING "+accountColumns,
		params.UserId,
		params.Age,
		params.Gender,
		params.Interests,
		params.RelationshipIntent,
		params.Location,
		params.Avatar,
		time.Now().UTC(),
	)

	u, err := scanAccount(row)
	return u, translateError(err)
}

func (db *PgRepository) UpdateAvatar(ctx context.Context, userId int, avatar string) error {
	res, err := db.conn.ExecContext(
		ctx,
		"UPDATE users SET avatar = $2, updated_at = $3 WHERE id = $1",
		userId,
		avatar,
		time.Now().UTC(),
	)
	if err != nil {
		return translateError(err)
	}

	return requireRowsAffected(res)
}

// SearchAccounts matches usernames containing keyword, hiding the caller and
// anyone with a block in either direction.
func (db *PgRepository) SearchAccounts(ctx context.Context, userId int, keyword string) ([]User, error) {
	rows, err := db.conn.QueryContext(
		ctx,
		"SELECT "+accountColumns+" FROM users "+
			"WHERE username ILIKE $1 AND id != $2 AND NOT banned "+
			"AND id NOT IN (SELECT blocked_id FROM user_blocks WHERE blocker_id = $2) "+
			"AND id NOT IN (SELECT blocker_id FROM user_blocks WHERE blocked_id = $2) "+
			"ORDER BY username LIMIT 100",
		"%"+keyword+"%",
		userId,
	)
	if err != nil {
		return nil, err
	}

	return scanAccounts(rows)
}

// BanAccount flags the account as banned and resolves the reports filed
// against it.
func (db *PgRepository) BanAccount(ctx context.Context, userId int) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "UPDATE users SET banned = TRUE, updated_at = $2 WHERE id = $1", userId, time.Now().UTC())
		if err != nil {
			return err
		}
		if err := requireRowsAffected(res); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, "UPDATE reports SET status = 'resolved' WHERE reported_user_id = $1 AND status = 'pending'", userId)
		return err
	})
}

func (db *PgRepository) BlockUser(ctx context.Context, blockerId, blockedId int) error {
	_, err := db.conn.ExecContext(
		ctx,
		"INSERT INTO user_blocks (blocker_id, blocked_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		blockerId,
		blockedId,
	)

	return translateError(err)
}

func (db *PgRepository) UnblockUser(ctx context.Context, blockerId, blockedId int) error {
	_, err := db.conn.ExecContext(
		ctx,
		"DELETE FROM user_blocks WHERE blocker_id = $1 AND blocked_id = $2",
		blockerId,
		blockedId,
	)

	return err
}

func (db *PgRepository) ListBlockedUsers(ctx context.Context, blockerId int) ([]User, error) {
	rows, err := db.conn.QueryContext(
		ctx,
		"SELECT u.id, u.username, u.email, u.role, u.age, u.gender, u.interests, u.relationship_intent, "+
			"u.location, u.avatar, u.banned, u.created_at, u.updated_at "+
			"FROM user_blocks ub JOIN users u ON ub.blocked_id = u.id WHERE ub.blocker_id = $1 ORDER BY ub.created_at",
		blockerId,
	)
	if err != nil {
		return nil, err
	}

	return scanAccounts(rows)
}

func (db *PgRepository) IsBlocked(ctx context.Context, userA, userB int) (bool, error) {
	var blocked bool
	err := db.conn.QueryRowContext(
		ctx,
		"SELECT EXISTS (SELECT 1 FROM user_blocks WHERE (blocker_id = $1 AND blocked_id = $2) OR (blocker_id = $2 AND blocked_id = $1))",
		userA,
		userB,
	).Scan(&blocked)

	return blocked, err
}

func (db *PgRepository) AddFavorite(ctx context.Context, userId, favoriteUserId int) error {
	_, err := db.conn.ExecContext(
		ctx,
		"INSERT INTO user_favorites (user_id, favorite_user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		userId,
		favoriteUserId,
	)

	return translateError(err)
}

func (db *PgRepository) RemoveFavorite(ctx context.Context, userId, favoriteUserId int) error {
	_, err := db.conn.ExecContext(
		ctx,
		"DELETE FROM user_favorites WHERE user_id = $1 AND favorite_user_id = $2",
		userId,
		favoriteUserId,
	)

	return err
}

func (db *PgRepository) ListFavorites(ctx context.Context, userId int) ([]User, error) {
	rows, err := db.conn.QueryContext(
		ctx,
		"SELECT u.id, u.username, u.email, u.role, u.age, u.gender, u.interests, u.relationship_intent, "+
			"u.location, u.avatar, u.banned, u.created_at, u.updated_at "+
			"FROM user_favorites uf JOIN users u ON uf.favorite_user_id = u.id WHERE uf.user_id = $1 ORDER BY uf.created_at",
		userId,
	)
	if err != nil {
		return nil, err
	}

	return scanAccounts(rows)
}

// FavoriteStatus reports, for every id in ids, whether userId has it as a
// favorite.
func (db *PgRepository) FavoriteStatus(ctx context.Context, userId int, ids []int) (map[int]bool, error) {
	status := make(map[int]bool, len(ids))
	if len(ids) == 0 {
		return status, nil
	}

	ids64 := make([]int64, len(ids))
	for i, id := range ids {
		status[id] = false
		ids64[i] = int64(id)
	}

	rows, err := db.conn.QueryContext(
		ctx,
		"SELECT favorite_user_id FROM user_favorites WHERE user_id = $1 AND favorite_user_id = ANY($2)",
		userId,
		pq.Array(ids64),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		status[id] = true
	}

	return status, rows.Err()
}

func (db *PgRepository) CreateReport(ctx context.Context, params CreateReportParams) error {
	_, err := db.conn.ExecContext(
		ctx,
		"INSERT INTO reports (reporter_id, reported_user_id, message_content, reason, created_at) VALUES ($1, $2, $3, $4, $5)",
		params.ReporterId,
		params.ReportedUserId,
		params.MessageContent,
		params.Reason,
		time.Now().UTC(),
	)

	return translateError(err)
}

func (db *PgRepository) ListPendingReports(ctx context.Context) ([]Report, error) {
	rows, err := db.conn.QueryContext(
		ctx,
		`SELECT r.id, r.message_content, r.reason, r.status, r.created_at,
			reporter.username, reported.username
		FROM reports r
		JOIN users reporter ON r.reporter_id = reporter.id
		JOIN users reported ON r.reported_user_id = reported.id
		WHERE r.status = 'pending'
		ORDER BY r.created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]Report, 0)
	for rows.Next() {
		var r Report
		if err := rows.Scan(
			&r.Id,
			&r.MessageContent,
			&r.Reason,
			&r.Status,
			&r.CreatedAt,
			&r.ReporterUsername,
			&r.ReportedUsername,
		); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}

	return reports, rows.Err()
}

func scanAccounts(rows *sql.Rows) ([]User, error) {
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		u, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func requireRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

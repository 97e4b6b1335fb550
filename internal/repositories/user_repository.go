package repositories

import (
	"database/sql"

	"userauth/internal/models"
)

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id int) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Delete(id int) error
	List(limit, offset int) ([]*models.User, error)
	GetCount() (int, error)

	// credential / profile mutations
	UpdatePassword(userID int, passwordHash string) error
	UpdatePasswordByEmail(email, passwordHash string) (*models.User, error)
	UpdateDeviceToken(userID int, deviceToken string) error
	UpdateImage(userID int, image string) error
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `
	id, name, email, password_hash,
	COALESCE(gender,''), date_of_birth, COALESCE(image,''),
	role, COALESCE(device_token,''), created_at, updated_at
`

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var dob sql.NullTime
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&u.Gender, &dob, &u.Image,
		&u.Role, &u.DeviceToken, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if dob.Valid {
		t := dob.Time
		u.DateOfBirth = &t
	}
	return u, nil
}

func (r *userRepository) Create(user *models.User) error {
	const q = `
		INSERT INTO users (name, email, password_hash, gender, date_of_birth, image, role, device_token)
		VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7,NULLIF($8,''))
		RETURNING id, created_at, updated_at
	`
	role := user.Role
	if role == "" {
		role = models.RoleUser
	}
	return r.DB.QueryRow(q,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Gender,
		user.DateOfBirth,
		user.Image,
		role,
		user.DeviceToken,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(id int) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.DB.QueryRow(q, id))
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.DB.QueryRow(q, email))
}

func (r *userRepository) Update(user *models.User) error {
	const q = `
		UPDATE users
		SET name=$1, email=$2, gender=$3, date_of_birth=$4,
			image=NULLIF($5,''), role=$6, updated_at=NOW()
		WHERE id=$7
	`
	_, err := r.DB.Exec(q,
		user.Name,
		user.Email,
		user.Gender,
		user.DateOfBirth,
		user.Image,
		user.Role,
		user.ID,
	)
	return err
}

func (r *userRepository) Delete(id int) error {
	_, err := r.DB.Exec(`DELETE FROM users WHERE id=$1`, id)
	return err
}

func (r *userRepository) List(limit, offset int) ([]*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := r.DB.Query(q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*models.User
	for rows.Next() {
		u := &models.User{}
		var dob sql.NullTime
		if err := rows.Scan(
			&u.ID, &u.Name, &u.Email, &u.PasswordHash,
			&u.Gender, &dob, &u.Image,
			&u.Role, &u.DeviceToken, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if dob.Valid {
			t := dob.Time
			u.DateOfBirth = &t
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (r *userRepository) GetCount() (int, error) {
	var c int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&c)
	return c, err
}

// ===== credential / profile mutations =====

func (r *userRepository) UpdatePassword(userID int, passwordHash string) error {
	_, err := r.DB.Exec(`
		UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2
	`, passwordHash, userID)
	return err
}

// UpdatePasswordByEmail is the find-and-update used by the reset flow;
// the updated row comes back so the handler can return it.
func (r *userRepository) UpdatePasswordByEmail(email, passwordHash string) (*models.User, error) {
	const q = `
		UPDATE users SET password_hash=$1, updated_at=NOW()
		WHERE email=$2
		RETURNING ` + userColumns
	return scanUser(r.DB.QueryRow(q, passwordHash, email))
}

func (r *userRepository) UpdateDeviceToken(userID int, deviceToken string) error {
	_, err := r.DB.Exec(`
		UPDATE users SET device_token=NULLIF($1,''), updated_at=NOW() WHERE id=$2
	`, deviceToken, userID)
	return err
}

func (r *userRepository) UpdateImage(userID int, image string) error {
	_, err := r.DB.Exec(`
		UPDATE users SET image=$1, updated_at=NOW() WHERE id=$2
	`, image, userID)
	return err
}

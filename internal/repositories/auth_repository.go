package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"pyme_pos_backend/internal/models"
)

// AuthRepository defines the interface for authentication-related database operations.
type AuthRepository interface {
	CreateUser(executor SQLExecutor, user *models.User, hashedPassword string) (int64, error)
	FindUserByEmail(email string) (*models.User, string, error) // Returns User, HashedPassword, Error
	FindUserByID(userID int64) (*models.User, error)

	CreateTenant(executor SQLExecutor, tenant *models.Tenant) error
	CreateTenantUser(executor SQLExecutor, membership *models.TenantUser) (int64, error)
	// FindTenantForUser returns the user's active tenant membership. Users can
	// belong to several tenants; the first (oldest) membership is the default
	// login scope.
	FindTenantForUser(userID int64) (*models.TenantUser, error)
}

type authRepository struct {
	db *sql.DB
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

func (r *authRepository) CreateUser(executor SQLExecutor, user *models.User, hashedPassword string) (int64, error) {
	query := `INSERT INTO users (email, password_hash, full_name, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, TRUE, NOW(), NOW())
	          RETURNING id, created_at, updated_at`
	err := executor.QueryRow(query, user.Email, hashedPassword, user.FullName).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return 0, mapPQError(err, fmt.Sprintf("creating user %s", user.Email))
	}
	user.IsActive = true
	return user.ID, nil
}

func (r *authRepository) FindUserByEmail(email string) (*models.User, string, error) {
	user := &models.User{}
	var hashedPassword string
	query := `SELECT id, email, password_hash, full_name, is_active, created_at, updated_at
	          FROM users WHERE email = $1`
	err := r.db.QueryRow(query, email).Scan(
		&user.ID, &user.Email, &hashedPassword, &user.FullName,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("%w: finding user by email %s: %v", ErrDatabaseError, email, err)
	}
	return user, hashedPassword, nil
}

func (r *authRepository) FindUserByID(userID int64) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, email, full_name, is_active, created_at, updated_at
	          FROM users WHERE id = $1`
	err := r.db.QueryRow(query, userID).Scan(
		&user.ID, &user.Email, &user.FullName,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by ID %d: %v", ErrDatabaseError, userID, err)
	}
	return user, nil
}

func (r *authRepository) CreateTenant(executor SQLExecutor, tenant *models.Tenant) error {
	query := `INSERT INTO tenants (id, name, slug, tax_id, address, phone, email,
	           subscription_plan, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, NOW(), NOW())
	          RETURNING created_at, updated_at`
	err := executor.QueryRow(query,
		tenant.ID, tenant.Name, tenant.Slug, tenant.TaxID, tenant.Address,
		tenant.Phone, tenant.Email, tenant.SubscriptionPlan,
	).Scan(&tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		return mapPQError(err, fmt.Sprintf("creating tenant %s", tenant.Slug))
	}
	tenant.IsActive = true
	return nil
}

func (r *authRepository) CreateTenantUser(executor SQLExecutor, membership *models.TenantUser) (int64, error) {
	query := `INSERT INTO tenant_users (user_id, tenant_id, role, is_active, created_at)
	          VALUES ($1, $2, $3, TRUE, NOW())
	          RETURNING id, created_at`
	err := executor.QueryRow(query, membership.UserID, membership.TenantID, membership.Role).
		Scan(&membership.ID, &membership.CreatedAt)
	if err != nil {
		return 0, mapPQError(err, "creating tenant membership")
	}
	membership.IsActive = true
	return membership.ID, nil
}

func (r *authRepository) FindTenantForUser(userID int64) (*models.TenantUser, error) {
	membership := &models.TenantUser{}
	query := `SELECT tu.id, tu.user_id, tu.tenant_id, tu.role, tu.is_active, tu.created_at
	          FROM tenant_users tu
	          JOIN tenants t ON tu.tenant_id = t.id
	          WHERE tu.user_id = $1 AND tu.is_active = TRUE AND t.is_active = TRUE
	          ORDER BY tu.created_at
	          LIMIT 1`
	err := r.db.QueryRow(query, userID).Scan(
		&membership.ID, &membership.UserID, &membership.TenantID,
		&membership.Role, &membership.IsActive, &membership.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding tenant for user %d: %v", ErrDatabaseError, userID, err)
	}
	return membership, nil
}

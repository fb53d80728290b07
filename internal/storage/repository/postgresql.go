// Package repository реализует хранилище данных на основе PostgreSQL
// для управления пользователями, сессиями, каталогом продуктов и корзинами.
// Предоставляет методы создания, чтения, обновления и удаления записей.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Ошибки хранилища, на которые опирается бизнес-слой.
var (
	// ErrNotFound возвращается, когда запрошенная запись отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken возвращается при попытке зарегистрировать занятый email.
	ErrEmailTaken = errors.New("email already taken")
	// ErrSessionExists возвращается при попытке создать вторую сессию пользователя.
	ErrSessionExists = errors.New("session already exists for user")
	// ErrTokenCollision возвращается при коллизии сгенерированного токена.
	// Состояние считается временным, вызывающая сторона повторяет генерацию.
	ErrTokenCollision = errors.New("token collision")
	// ErrFeatureExists возвращается при попытке создать фичу с занятым типом.
	ErrFeatureExists = errors.New("feature type already exists")
)

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с доменными записями.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "repository.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'sessions'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table sessions missing or query error: %w", err)
	}
	return nil
}

// isUniqueViolation сообщает, что err — нарушение указанного уникального
// ограничения PostgreSQL (SQLSTATE 23505).
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}

// Package auth provides marketplace accounts and bearer-token authentication.
//
// It implements:
//   - Registration, login and profile management over a SQLite users table
//   - Argon2id password hashing (OWASP baseline parameters)
//   - HS256 JWT access tokens carrying {id, name, surname}, with a lifetime
//     chosen by account tier (regular, premium, admin)
//   - Owner profile lookup for device listings (SQLiteUserRepository.Owners)
//
// Deleting an account also removes its device listings through a
// DeviceCleaner.
package auth

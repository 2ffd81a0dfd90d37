// Package users manages account registration, credential verification, and
// API token issuance. Accounts live in their own SQLite database next to the
// analysis queue; passwords are stored as argon2id hashes and API access uses
// short-lived HMAC-signed JWTs.
package users
